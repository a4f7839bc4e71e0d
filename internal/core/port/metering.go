package port

import "github.com/berfenger/froniuslights/internal/core/domain"

type MeteringLogic interface {
	// Compute derives the reading of kind from snapshot. A nil snapshot
	// yields a reading with every characteristic in the error state.
	Compute(snapshot *domain.Snapshot, kind domain.MeteringKind) domain.Reading
}
