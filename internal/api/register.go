package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/numerano/teams-backend/internal/model"
	"github.com/numerano/teams-backend/internal/verify"
	"github.com/numerano/teams-backend/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Form keys arrive flat: members[0][name], members[0][email], idCards[1].
// Indices are sparse at this point; the registration service checks
// coverage against the declared team size.
var (
	memberFieldRe = regexp.MustCompile(`^members\[(\d+)\]\[(\w+)\]$`)
	idCardRe      = regexp.MustCompile(`^idCards\[(\d+)\]$`)
)

type registerResponse struct {
	OK           bool   `json:"ok"`
	TeamID       string `json:"teamId"`
	Email        string `json:"email"`
	Members      int    `json:"members"`
	EmailSent    bool   `json:"emailSent"`
	EmailSkipped bool   `json:"emailSkipped"`
}

func (h *Handler) Register(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	sub, err := parseSubmission(e)
	if err != nil {
		l.Error("failed to parse registration form", zap.Error(err))
		return e.JSON(http.StatusInternalServerError, errorResponse{Message: "Server error"})
	}

	l.Info("registration received",
		zap.String("team_size", sub.TeamSize),
		zap.Int("member_fields", len(sub.Members)),
		zap.Int("id_cards", len(sub.IDCards)))

	result, svcErr := h.registration.Register(e.Request().Context(), sub)
	if svcErr != nil {
		l.Warn("registration rejected",
			zap.String("code", string(svcErr.Code)),
			zap.String("message", svcErr.Message))
		return h.transportError(e, svcErr)
	}

	return e.JSON(http.StatusOK, registerResponse{
		OK:           true,
		TeamID:       result.TeamID,
		Email:        result.Email,
		Members:      result.Members,
		EmailSent:    result.EmailSent,
		EmailSkipped: result.EmailSkipped,
	})
}

func parseSubmission(e echo.Context) (*model.Submission, error) {
	form, err := e.MultipartForm()
	if err != nil {
		return nil, errors.Wrap(err, "read multipart form")
	}

	sub := &model.Submission{
		Members: make(map[int]map[string]string),
		IDCards: make(map[int]*model.Upload),
	}

	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		switch key {
		case "teamSize":
			sub.TeamSize = values[0]
		case "humanToken":
			sub.HumanToken = values[0]
		default:
			m := memberFieldRe.FindStringSubmatch(key)
			if m == nil {
				continue
			}
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if sub.Members[idx] == nil {
				sub.Members[idx] = make(map[string]string)
			}
			sub.Members[idx][m[2]] = values[0]
		}
	}

	for key, files := range form.File {
		m := idCardRe.FindStringSubmatch(key)
		if m == nil || len(files) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		upload, err := readUpload(files[0])
		if err != nil {
			return nil, err
		}
		sub.IDCards[idx] = upload
	}

	return sub, nil
}

func readUpload(fh *multipart.FileHeader) (*model.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open upload")
	}
	defer f.Close()

	// Read one byte past the limit so oversized files still get rejected
	// with the size message instead of being silently truncated.
	content, err := io.ReadAll(io.LimitReader(f, verify.MaxSizeBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}

	return &model.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        int64(len(content)),
		Content:     content,
	}, nil
}
