package identity

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// Mode selects how much of the buyer's identity the audit trail retains.
type Mode string

const (
	ModeTracked   Mode = "tracked"
	ModeUntracked Mode = "untracked"
)

var (
	ErrUnknownMode          = fmt.Errorf("unknown identity mode")
	ErrInvalidWalletAddress = fmt.Errorf("invalid wallet address")
	ErrSpendingUnavailable  = fmt.Errorf("team spending is unavailable for untracked identities")
)

// The fixed salt is overridable via IDENTITY_SALT. A fixed, code-embedded
// salt over a guessable address space is brute-forceable; the export never
// claims the hash is irreversible.
const defaultSalt = "gpumesh-routing-v1"

type ActivityEntry struct {
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is the audit identity for one job. Exactly one of the two variants
// is populated, selected by Mode: tracked records carry raw identifiers,
// untracked records carry only salted hashes. The audit id is stable for the
// job's lifetime in both modes.
type Record struct {
	Mode    Mode   `json:"mode"`
	AuditID string `json:"audit_id"`

	// tracked variant
	WalletAddress string `json:"wallet_address,omitempty"`
	OrgID         string `json:"org_id,omitempty"`
	TeamMemberID  string `json:"team_member_id,omitempty"`

	// untracked variant
	WalletHash string `json:"wallet_hash,omitempty"`
	OrgHash    string `json:"org_hash,omitempty"`

	CreatedAt      time.Time       `json:"created_at"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	Activities     []ActivityEntry `json:"activities"`
}

type CreateContext struct {
	Mode          Mode
	WalletAddress string
	OrgID         string
	TeamMemberID  string
}

type Service struct {
	salt string
}

func NewService() *Service {
	salt := os.Getenv("IDENTITY_SALT")
	if salt == "" {
		salt = defaultSalt
	}
	return &Service{salt: salt}
}

// CreateIdentity dispatches on the requested mode. The switch is exhaustive
// over the two modes with an explicit error default, so a third mode cannot
// fall through silently.
func (s *Service) CreateIdentity(ctx CreateContext) (*Record, error) {
	if !common.IsHexAddress(ctx.WalletAddress) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWalletAddress, ctx.WalletAddress)
	}

	now := time.Now().UTC()
	record := &Record{
		AuditID:        uuid.NewString(),
		CreatedAt:      now,
		LastActivityAt: now,
	}

	switch ctx.Mode {
	case ModeTracked:
		record.Mode = ModeTracked
		record.WalletAddress = strings.ToLower(ctx.WalletAddress)
		record.OrgID = ctx.OrgID
		record.TeamMemberID = ctx.TeamMemberID
	case ModeUntracked:
		record.Mode = ModeUntracked
		record.WalletHash = s.HashAddress(ctx.WalletAddress)
		if ctx.OrgID != "" {
			record.OrgHash = s.hash(ctx.OrgID)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, ctx.Mode)
	}

	record.AppendActivity("identity_created", string(record.Mode))
	return record, nil
}

// HashAddress is deterministic and case-insensitive on the address.
func (s *Service) HashAddress(addr string) string {
	return s.hash(strings.ToLower(addr))
}

func (s *Service) hash(value string) string {
	return crypto.Keccak256Hash([]byte(value + s.salt)).Hex()
}

// AppendActivity is append-only and bumps the last-activity timestamp.
func (r *Record) AppendActivity(action, detail string) {
	now := time.Now().UTC()
	r.Activities = append(r.Activities, ActivityEntry{Action: action, Detail: detail, Timestamp: now})
	r.LastActivityAt = now
}

// AuditExport produces the audit-safe view of a record: full identifiers for
// tracked, hashes and the audit id only for untracked.
func (s *Service) AuditExport(r *Record) (map[string]interface{}, error) {
	export := map[string]interface{}{
		"mode":             string(r.Mode),
		"audit_id":         r.AuditID,
		"created_at":       r.CreatedAt.Format(time.RFC3339),
		"last_activity_at": r.LastActivityAt.Format(time.RFC3339),
		"activity_count":   len(r.Activities),
	}

	switch r.Mode {
	case ModeTracked:
		export["wallet_address"] = r.WalletAddress
		if r.OrgID != "" {
			export["org_id"] = r.OrgID
		}
		if r.TeamMemberID != "" {
			export["team_member_id"] = r.TeamMemberID
		}
	case ModeUntracked:
		export["wallet_hash"] = r.WalletHash
		if r.OrgHash != "" {
			export["org_hash"] = r.OrgHash
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, r.Mode)
	}
	return export, nil
}

// VerifyOwner reports whether rawAddr owns the record: direct compare for
// tracked, recompute-and-compare for untracked.
func (s *Service) VerifyOwner(r *Record, rawAddr string) (bool, error) {
	switch r.Mode {
	case ModeTracked:
		return strings.EqualFold(r.WalletAddress, rawAddr), nil
	case ModeUntracked:
		return r.WalletHash == s.HashAddress(rawAddr), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownMode, r.Mode)
	}
}

type CompletedJob struct {
	TeamMemberID string  `json:"team_member_id"`
	CostUsd      float64 `json:"cost_usd"`
}

type MemberSpending struct {
	TeamMemberID string  `json:"team_member_id"`
	JobCount     int     `json:"job_count"`
	TotalUsd     float64 `json:"total_usd"`
	AverageUsd   float64 `json:"average_usd"`
}

type TeamSpendingReport struct {
	OrgID    string           `json:"org_id"`
	TotalUsd float64          `json:"total_usd"`
	Members  []MemberSpending `json:"members"`
}

// TeamSpending aggregates per-member cost across completed jobs. Only tracked
// identities carrying an organization id can aggregate; untracked identities
// get ErrSpendingUnavailable, never a fabricated zero.
func (s *Service) TeamSpending(r *Record, jobs []CompletedJob) (*TeamSpendingReport, error) {
	switch r.Mode {
	case ModeTracked:
		if r.OrgID == "" {
			return nil, fmt.Errorf("team spending requires an organization id")
		}
	case ModeUntracked:
		return nil, ErrSpendingUnavailable
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, r.Mode)
	}

	byMember := make(map[string]*MemberSpending)
	var order []string
	report := &TeamSpendingReport{OrgID: r.OrgID}
	for _, job := range jobs {
		m, ok := byMember[job.TeamMemberID]
		if !ok {
			m = &MemberSpending{TeamMemberID: job.TeamMemberID}
			byMember[job.TeamMemberID] = m
			order = append(order, job.TeamMemberID)
		}
		m.JobCount++
		m.TotalUsd += job.CostUsd
		report.TotalUsd += job.CostUsd
	}
	for _, id := range order {
		m := byMember[id]
		if m.JobCount > 0 {
			m.AverageUsd = m.TotalUsd / float64(m.JobCount)
		}
		report.Members = append(report.Members, *m)
	}
	return report, nil
}
