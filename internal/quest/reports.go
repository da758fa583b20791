package quest

// TimeTarget is the target of every elapsed-time report
const TimeTarget = StringTarget("time")

// ReportItemCollected reports amount of an item picked up
func (s *System) ReportItemCollected(itemID string, amount int) {
	s.ReceiveReport(CategoryCollection, StringTarget(itemID), amount)
}

// ReportEnemyKilled reports amount of an enemy type defeated
func (s *System) ReportEnemyKilled(enemyID string, amount int) {
	s.ReceiveReport(CategoryCombat, StringTarget(enemyID), amount)
}

// ReportLocationReached reports the player arriving at a position.
// Location tasks match by distance when they have a reach distance and by
// name otherwise.
func (s *System) ReportLocationReached(position Vector3, locationName string) {
	s.ReceiveReport(CategoryExploration, LocationTarget{Name: locationName, Position: position}, 1)
}

// ReportLocationNamed reports arriving at a named place whose position is
// unknown. Only location tasks with a matching name count it.
func (s *System) ReportLocationNamed(locationName string) {
	if locationName == "" {
		return
	}
	s.ReceiveReport(CategoryExploration, LocationTarget{Name: locationName, NameOnly: true}, 1)
}

// ReportNPCTalked reports a conversation with an NPC. Tasks target NPCs by
// ID; the name is used only when the NPC has none.
func (s *System) ReportNPCTalked(npcID, npcName string) {
	if npcID == "" {
		npcID = npcName
	}
	s.ReceiveReport(CategorySocial, StringTarget(npcID), 1)
}

// ReportTimeElapsed reports seconds survived
func (s *System) ReportTimeElapsed(seconds int) {
	if seconds <= 0 {
		return
	}
	s.ReceiveReport(CategorySurvival, TimeTarget, seconds)
}
