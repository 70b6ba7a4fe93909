package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/contribfest/participation/internal/domain"
)

const (
	// RequiredEligibleCount is the number of eligible pull requests a
	// participant needs to qualify.
	RequiredEligibleCount = 4
	// CompletionWaitingPeriod is how long a participant must hold the waiting
	// state before completing.
	CompletionWaitingPeriod = 7 * 24 * time.Hour
)

// Facts carries the externally supplied inputs a transition is evaluated
// against. Guards never consult clocks or globals; everything they depend on
// arrives here.
type Facts struct {
	EligibleActivityCount int
	CampaignEnded         bool
	Now                   time.Time
}

// guard is a named pure predicate over a participant and the supplied facts.
// A failing guard contributes one keyed error to the attempt.
type guard struct {
	key   string
	check func(p *domain.Participant, f Facts) (ok bool, msg string)
}

var termsAccepted = guard{
	key: "terms_accepted",
	check: func(p *domain.Participant, _ Facts) (bool, string) {
		if p.TermsAccepted {
			return true, ""
		}
		return false, "terms must be accepted before registering"
	},
}

var emailPresent = guard{
	key: "email",
	check: func(p *domain.Participant, _ Facts) (bool, string) {
		if strings.TrimSpace(p.Email) != "" {
			return true, ""
		}
		return false, "email can't be blank"
	},
}

var sufficientEligiblePRs = guard{
	key: "sufficient_eligible_prs?",
	check: func(_ *domain.Participant, f Facts) (bool, string) {
		if f.EligibleActivityCount >= RequiredEligibleCount {
			return true, ""
		}
		return false, fmt.Sprintf("user has fewer than %d eligible pull requests", RequiredEligibleCount)
	},
}

// wonCampaign is the composite completion guard: enough eligible pull requests
// AND the full waiting period served. Partial satisfaction reports the single
// composite error, never the individual conditions.
var wonCampaign = guard{
	key: "won_hacktoberfest?",
	check: func(p *domain.Participant, f Facts) (bool, string) {
		if f.EligibleActivityCount >= RequiredEligibleCount &&
			p.WaitingSince != nil &&
			f.Now.Sub(*p.WaitingSince) >= CompletionWaitingPeriod {
			return true, ""
		}
		return false, "user has not met all winning conditions of hacktoberfest"
	},
}

var insufficientEligiblePRs = guard{
	key: "insufficient_eligible_prs?",
	check: func(_ *domain.Participant, f Facts) (bool, string) {
		if f.EligibleActivityCount < RequiredEligibleCount {
			return true, ""
		}
		return false, "user still has enough eligible pull requests to qualify"
	},
}

var campaignEnded = guard{
	key: "hacktoberfest_ended?",
	check: func(_ *domain.Participant, f Facts) (bool, string) {
		if f.CampaignEnded {
			return true, ""
		}
		return false, "hacktoberfest has not ended yet"
	},
}
