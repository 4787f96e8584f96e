package domain

// DealStage is the pipeline position of a sales opportunity. The set is
// closed; any other value is a validation failure, never a default.
type DealStage string

const (
	StageProspecting   DealStage = "prospecting"
	StageQualification DealStage = "qualification"
	StageProposal      DealStage = "proposal"
	StageNegotiation   DealStage = "negotiation"
	StageClosedWon     DealStage = "closed_won"
	StageClosedLost    DealStage = "closed_lost"
	StageNurture       DealStage = "nurture"
)

// DealStages lists every valid stage in pipeline order.
var DealStages = []DealStage{
	StageProspecting,
	StageQualification,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
	StageNurture,
}

// Valid reports whether s is a member of the closed stage set.
func (s DealStage) Valid() bool {
	switch s {
	case StageProspecting, StageQualification, StageProposal,
		StageNegotiation, StageClosedWon, StageClosedLost, StageNurture:
		return true
	}
	return false
}

// InterestLevel is the qualitative temperature of a lead.
type InterestLevel string

const (
	InterestHot     InterestLevel = "hot"     // ready to buy
	InterestWarm    InterestLevel = "warm"    // interested, needs nurturing
	InterestCold    InterestLevel = "cold"    // low interest
	InterestNeutral InterestLevel = "neutral" // unclear, still assessing
)

// InterestLevels lists every valid interest level.
var InterestLevels = []InterestLevel{InterestHot, InterestWarm, InterestCold, InterestNeutral}

// Valid reports whether l is a member of the closed level set.
func (l InterestLevel) Valid() bool {
	switch l {
	case InterestHot, InterestWarm, InterestCold, InterestNeutral:
		return true
	}
	return false
}
