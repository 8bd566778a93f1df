package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/jd-tailor/internal/ai"
	"github.com/spigell/jd-tailor/internal/keywords"
)

const (
	maxJSONBody = 1 << 20
	pdfMIME     = "application/pdf"
)

type taxonomyResponse struct {
	Groups  []keywords.Group `json:"groups"`
	Exclude []string         `json:"exclude"`
	Error   string           `json:"error,omitempty"`
}

type booleanResponse struct {
	BooleanQuery string `json:"boolean_query"`
}

type jdTextRequest struct {
	Text string `json:"text" validate:"required"`
}

type booleanRequest struct {
	Groups  []keywords.Group `json:"groups" validate:"max=50,dive,max=20,dive,max=200"`
	Exclude []string         `json:"exclude" validate:"max=50,dive,max=200"`
}

type pointersForm struct {
	TargetMatch string `validate:"required,numeric"`
}

// requestError is a malformed request, answered with a 4xx status.
type requestError struct {
	status  int
	msg     string
	details map[string]string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string, details map[string]string) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: msg, details: details}
}

func (s *Server) extractJDHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.parseMultipart(w, r); err != nil {
			s.fail(w, r, err)
			return
		}

		text, err := s.readPDF(r, "file")
		if err != nil {
			s.fail(w, r, err)
			return
		}

		s.respondTaxonomy(w, r, text)
	}
}

func (s *Server) extractJDTextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req jdTextRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			s.fail(w, r, err)
			return
		}

		req.Text = strings.TrimSpace(req.Text)
		if err := s.validate(req); err != nil {
			s.fail(w, r, err)
			return
		}

		s.respondTaxonomy(w, r, req.Text)
	}
}

func (s *Server) generateBooleanHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req booleanRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		if err := s.validate(req); err != nil {
			s.fail(w, r, err)
			return
		}

		query := keywords.BuildQuery(&keywords.Taxonomy{Groups: req.Groups, Exclude: req.Exclude})
		writeJSON(w, http.StatusOK, booleanResponse{BooleanQuery: query})
	}
}

func (s *Server) generatePointersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.parseMultipart(w, r); err != nil {
			s.fail(w, r, err)
			return
		}

		form := pointersForm{TargetMatch: strings.TrimSpace(r.FormValue("target_match"))}
		if err := s.validate(form); err != nil {
			s.fail(w, r, err)
			return
		}
		target, err := strconv.Atoi(form.TargetMatch)
		if err != nil {
			s.fail(w, r, badRequest("target_match must be an integer", map[string]string{"target_match": "number"}))
			return
		}

		resume, err := s.readPDF(r, "resume")
		if err != nil {
			s.fail(w, r, err)
			return
		}

		result := s.rewriter.Rewrite(r.Context(), r.FormValue("jd_text"), resume, target)
		if result.Error != "" {
			s.metrics.ObserveFailure("rewrite", result.Kind)
			s.loggerFrom(r).Warn("rewrite failed", zap.String("error", result.Error))
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) respondTaxonomy(w http.ResponseWriter, r *http.Request, jd string) {
	res := s.extractor.ExtractTaxonomy(r.Context(), jd)

	resp := taxonomyResponse{Groups: []keywords.Group{}, Exclude: []string{}}
	if res.Taxonomy != nil {
		if res.Taxonomy.Groups != nil {
			resp.Groups = res.Taxonomy.Groups
		}
		if res.Taxonomy.Exclude != nil {
			resp.Exclude = res.Taxonomy.Exclude
		}
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
		s.metrics.ObserveFailure("taxonomy", ai.KindOf(res.Err))
		s.loggerFrom(r).Warn("taxonomy extraction failed", zap.Error(res.Err))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		return badRequest("content-type must be multipart/form-data", nil)
	}

	maxBytes := s.cfg.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &requestError{
				status:  http.StatusRequestEntityTooLarge,
				msg:     "payload too large",
				details: map[string]string{"max_mb": strconv.FormatInt(s.cfg.MaxUploadMB, 10)},
			}
		}
		return badRequest(fmt.Sprintf("invalid multipart form: %v", err), nil)
	}
	return nil
}

// readPDF loads an uploaded PDF and returns the text of its leading pages.
func (s *Server) readPDF(r *http.Request, field string) (string, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return "", badRequest(field+" file required", map[string]string{"field": field})
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", badRequest(fmt.Sprintf("read %s: %v", field, err), nil)
	}

	mime := mimetype.Detect(data)
	if !mime.Is(pdfMIME) {
		return "", &requestError{
			status:  http.StatusUnsupportedMediaType,
			msg:     fmt.Sprintf("unsupported media type for %s", field),
			details: map[string]string{"mime": mime.String(), "field": field},
		}
	}

	text, err := s.pdfText(data, s.cfg.MaxPages)
	if err != nil {
		return "", badRequest(fmt.Sprintf("extract %s text: %v", field, err), nil)
	}
	return text, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &requestError{status: http.StatusRequestEntityTooLarge, msg: "payload too large"}
		}
		return badRequest("invalid json", nil)
	}
	return nil
}

func (s *Server) validate(v any) error {
	err := s.getValidator().Struct(v)
	if err == nil {
		return nil
	}

	details := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return badRequest("validation failed", details)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	if !errors.As(err, &reqErr) {
		reqErr = &requestError{status: http.StatusInternalServerError, msg: err.Error()}
	}

	s.loggerFrom(r).Info("rejecting request",
		zap.Int("status", reqErr.status),
		zap.String("reason", reqErr.msg),
	)
	writeError(w, reqErr.status, reqErr.msg, reqErr.details)
}
