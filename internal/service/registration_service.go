package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/numerano/teams-backend/internal/db"
	"github.com/numerano/teams-backend/internal/mail"
	"github.com/numerano/teams-backend/internal/model"
	"github.com/numerano/teams-backend/internal/repository"
	"github.com/numerano/teams-backend/internal/teamid"
	"github.com/numerano/teams-backend/internal/verify"
	"github.com/numerano/teams-backend/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// maxIDAttempts bounds the collision loop. UUID-backed identifiers make
// exhaustion practically impossible; the cap only guards against a broken
// store returning phantom rows forever.
const maxIDAttempts = 16

var teamSizes = map[string]int{"2": 2, "3": 3, "4": 4}

// RegistrationService drives a submission through structural validation,
// per-member field validation, document verification, identifier
// allocation, persistence, and the best-effort confirmation email.
type RegistrationService struct {
	tx db.Transactor

	teams  repository.TeamRepository
	mailer mail.Sender

	validate *validator.Validate
}

func NewRegistrationService(tx db.Transactor) *RegistrationService {
	return &RegistrationService{
		tx:       tx,
		validate: validator.New(),
	}
}

func (r *RegistrationService) WithTeamRepo(repo repository.TeamRepository) *RegistrationService {
	r.teams = repo
	return r
}

func (r *RegistrationService) WithMailer(m mail.Sender) *RegistrationService {
	r.mailer = m
	return r
}

type RegistrationResult struct {
	TeamID       string
	Email        string
	Members      int
	EmailSent    bool
	EmailSkipped bool
}

// Register validates the submission and, if it passes, persists the team
// and attempts the confirmation email. Validation failures abort on the
// first error in index order; the email outcome never fails the request.
func (r *RegistrationService) Register(ctx context.Context, sub *model.Submission) (*RegistrationResult, *Error) {
	l := logger.FromContext(ctx)

	size, ok := teamSizes[sub.TeamSize]
	if !ok {
		return nil, NewError(ErrorCodeValidation, "Team size must be between 2-4 members")
	}

	if len(sub.HumanToken) < 3 {
		return nil, NewError(ErrorCodeValidation, "Human verification required")
	}

	// Presence for every index is checked before any field validation so a
	// field error at a low index cannot mask a missing member at a higher
	// one.
	for i := 0; i < size; i++ {
		if len(sub.Members[i]) == 0 {
			return nil, NewError(ErrorCodeValidation, fmt.Sprintf("Team member %d data is missing", i+1))
		}
	}

	members := make([]*model.TeamMember, 0, size)
	for i := 0; i < size; i++ {
		fields := sub.Members[i]
		m := &model.TeamMember{
			Name:          strings.TrimSpace(fields["name"]),
			ContactNumber: strings.TrimSpace(fields["contactNumber"]),
			Email:         strings.TrimSpace(fields["email"]),
			USN:           strings.TrimSpace(fields["usn"]),
		}
		if msg := r.validateMember(m); msg != "" {
			return nil, NewError(ErrorCodeValidation, fmt.Sprintf("Member %d: %s", i+1, msg))
		}
		members = append(members, m)
	}

	for i := 0; i < size; i++ {
		if sub.IDCards[i] == nil {
			return nil, NewError(ErrorCodeValidation, fmt.Sprintf("ID card missing for team member %d", i+1))
		}
	}

	for i := 0; i < size; i++ {
		if res := verify.IDCard(sub.IDCards[i]); !res.Valid {
			reason := res.Reason
			if reason == "" {
				reason = "Verification failed"
			}
			return nil, NewError(ErrorCodeValidation, fmt.Sprintf("Member %d ID card: %s", i+1, reason))
		}
	}

	team, svcErr := r.createTeam(ctx, size, members)
	if svcErr != nil {
		return nil, svcErr
	}

	primary := team.Members[0]
	mailRes := r.mailer.SendConfirmation(ctx, mail.Confirmation{
		To:     primary.Email,
		Name:   primary.Name,
		TeamID: team.TeamID,
	})
	switch {
	case mailRes.Skipped:
		l.Info("confirmation email skipped", zap.String("team_id", team.TeamID), zap.String("reason", mailRes.Message))
	case !mailRes.OK:
		l.Warn("confirmation email failed", zap.String("team_id", team.TeamID), zap.String("reason", mailRes.Message))
	default:
		l.Info("confirmation email sent", zap.String("team_id", team.TeamID), zap.String("to", primary.Email))
	}

	return &RegistrationResult{
		TeamID:       team.TeamID,
		Email:        primary.Email,
		Members:      len(team.Members),
		EmailSent:    mailRes.OK,
		EmailSkipped: mailRes.Skipped,
	}, nil
}

// createTeam allocates a unique identifier and persists the team with its
// members in one transaction. A unique-violation on insert means another
// request claimed the same identifier first; the loop simply tries again
// with a fresh candidate.
func (r *RegistrationService) createTeam(ctx context.Context, size int, members []*model.TeamMember) (*model.Team, *Error) {
	l := logger.FromContext(ctx)

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := teamid.New()

		_, err := r.teams.Get(ctx, id)
		if err == nil {
			l.Warn("team id already taken", zap.String("team_id", id))
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			l.Error("failed to check team id", zap.String("team_id", id), zap.Error(err))
			return nil, NewError(ErrorCodeUnspecified, "failed to register team")
		}

		err = r.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			if err := r.teams.Create(txCtx, &repository.Team{
				TeamID:   id,
				TeamSize: size,
			}); err != nil {
				return err
			}

			for pos, m := range members {
				var usn *string
				if m.USN != "" {
					usn = &m.USN
				}
				if err := r.teams.AddMember(txCtx, &repository.TeamMember{
					TeamID:        id,
					Position:      pos,
					Name:          m.Name,
					ContactNumber: m.ContactNumber,
					Email:         m.Email,
					USN:           usn,
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if errors.Is(err, repository.ErrAlreadyExists) {
			l.Warn("lost team id race, retrying", zap.String("team_id", id))
			continue
		}
		if err != nil {
			l.Error("failed to persist team", zap.String("team_id", id), zap.Error(err))
			return nil, NewError(ErrorCodeUnspecified, "failed to register team")
		}

		l.Info("team registered", zap.String("team_id", id), zap.Int("members", len(members)))
		return &model.Team{
			TeamID:   id,
			TeamSize: size,
			Members:  members,
		}, nil
	}

	l.Error("exhausted team id attempts", zap.Int("attempts", maxIDAttempts))
	return nil, NewError(ErrorCodeUnspecified, "failed to register team")
}

// validateMember returns the first failing field's message, or "".
func (r *RegistrationService) validateMember(m *model.TeamMember) string {
	err := r.validate.Struct(m)
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Invalid member data"
	}

	switch fieldErrs[0].Field() {
	case "Name":
		return "Name is required"
	case "ContactNumber":
		return "Valid contact number is required"
	case "Email":
		return "Valid email required"
	case "USN":
		return "USN is required"
	default:
		return "Invalid member data"
	}
}
