// Package engine runs the city simulation.
//
// ARCHITECTURAL RULE: systems never mutate world state. Each phase hands the
// systems a snapshot; they return events; the resolver applies those events
// through exactly one owner per world slice. Randomness comes only from the
// tick's named streams, so the same seed and the same inputs always produce
// the same world.
//
// Tick phases, in order:
//
//	Decay              heat decay, evidence aging, stamina and focus recovery
//	WorldGen           incidents, crime cooling, investigation progress
//	Faction            incident response, threshold escalation, rivalry
//	Nemesis            learning, adaptation, countermeasures
//	NarrativePressure  pressure axes and storylets
//	Resolve            queued player actions, then time advances
//	Commit             checkpoint by policy
package engine
