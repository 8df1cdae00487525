// Package apiserver is the development backend for the admin panel: a REST
// CRUD surface over every catalog resource, persisted in workspace SQLite,
// with JWT-gated access and multipart media uploads.
package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"utsavya/internal/guard"
	"utsavya/internal/item"
	"utsavya/internal/resource"
)

// Config for the HTTP API handler.
type Config struct {
	Catalog   resource.Catalog
	Records   *Records
	Media     *MediaDir
	JWTSecret string
	TokenTTL  time.Duration
	Log       zerolog.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"record not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError is the error envelope every failure path uses.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns the HTTP handler exposing the panel backend.
func New(cfg Config) (http.Handler, error) {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if err := cfg.Catalog.Validate(); err != nil {
		return nil, err
	}

	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(cfg.JWTSecret))
	router.Use(newMultipartMiddleware(cfg.Catalog, cfg.Media, cfg.Log))
	router.Handle("/media/*", cfg.Media.Handler())

	hcfg := huma.DefaultConfig("Utsavya Admin API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)

	registerHealth(api)
	registerLogin(api, cfg)
	for _, schema := range cfg.Catalog.Resources {
		registerResource(api, cfg, schema)
	}

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{status: status, Body: apiErrorBody{Code: code, Message: message, Details: details}}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	default:
		return "internal_error"
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

// openPaths are reachable without a session.
func openPath(p string) bool {
	return p == "/health" || p == "/auth/login" || p == "/openapi" ||
		strings.HasPrefix(p, "/openapi.") || strings.HasPrefix(p, "/media/")
}

func newAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if openPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			parts := strings.Fields(authz)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil))
				return
			}
			err := guard.Check(guard.Credentials{Token: parts[1]}, secret)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, guard.ErrRoleDenied):
				respondStatusError(w, newAPIError(http.StatusForbidden, "forbidden", "role not allowed", nil))
			default:
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
			}
		})
	}
}

// newMultipartMiddleware rewrites multipart create/update bodies into the
// canonical JSON shape before the handlers see them. File parts are stored
// and replaced with their media URLs.
func newMultipartMiddleware(catalog resource.Catalog, media *MediaDir, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "multipart/form-data") {
				next.ServeHTTP(w, r)
				return
			}
			schema, ok := schemaForPath(catalog, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			fields, err := decodeMultipart(r, schema, media)
			if err != nil {
				log.Error().Err(err).Str("path", r.URL.Path).Msg("multipart decode failed")
				respondStatusError(w, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil))
				return
			}
			body, err := json.Marshal(fields)
			if err != nil {
				respondStatusError(w, handleError(err))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
			r.Header.Set("Content-Type", "application/json")
			next.ServeHTTP(w, r)
		})
	}
}

func schemaForPath(catalog resource.Catalog, p string) (resource.Schema, bool) {
	for _, s := range catalog.Resources {
		if p == s.Path || strings.HasPrefix(p, s.Path+"/") {
			return s, true
		}
	}
	return resource.Schema{}, false
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

type loginInput struct {
	Body struct {
		Username string `json:"username" minLength:"1"`
		Password string `json:"password" minLength:"1"`
		Role     string `json:"role,omitempty"`
	}
}

type loginOutput struct {
	Body struct {
		Token     string `json:"token"`
		Role      string `json:"role"`
		ExpiresAt string `json:"expiresAt"`
	}
}

// registerLogin mints a session token. This backend is a development stand-in
// and accepts any credentials; the role lands in the token for the guard to
// judge.
func registerLogin(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Sign in and receive a session token",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *loginInput) (*loginOutput, error) {
		role := input.Body.Role
		if role == "" {
			role = "admin"
		}
		token, err := guard.Issue(cfg.JWTSecret, input.Body.Username, role, cfg.TokenTTL)
		if err != nil {
			return nil, handleError(err)
		}
		out := &loginOutput{}
		out.Body.Token = token
		out.Body.Role = role
		out.Body.ExpiresAt = time.Now().Add(cfg.TokenTTL).UTC().Format(time.RFC3339)
		return out, nil
	})
}

type idPath struct {
	ID string `path:"id"`
}

type recordOutput struct {
	Body map[string]any `json:"body"`
}

type recordListOutput struct {
	Body []map[string]any `json:"body"`
}

func encodeItem(it item.Item) map[string]any {
	out := make(map[string]any, len(it.Fields)+1)
	for k, v := range it.Fields {
		out[k] = v
	}
	out["id"] = it.ID
	return out
}

// registerResource wires the five CRUD operations for one catalog resource.
func registerResource(api huma.API, cfg Config, schema resource.Schema) {
	name := schema.Name
	log := cfg.Log.With().Str("resource", name).Logger()

	huma.Register(api, huma.Operation{
		OperationID: "list-" + name,
		Method:      http.MethodGet,
		Path:        schema.Path,
		Summary:     "List " + schema.Title,
	}, func(ctx context.Context, _ *struct{}) (*recordListOutput, error) {
		items, err := cfg.Records.List(ctx, name)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]map[string]any, len(items))
		for i, it := range items {
			out[i] = encodeItem(it)
		}
		return &recordListOutput{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-" + name,
		Method:      http.MethodGet,
		Path:        schema.Path + "/{id}",
		Summary:     "Get one of " + schema.Title,
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*recordOutput, error) {
		it, err := cfg.Records.Get(ctx, name, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &recordOutput{Body: encodeItem(it)}, nil
	})

	type rawInput struct {
		RawBody []byte
	}
	huma.Register(api, huma.Operation{
		OperationID:   "create-" + name,
		Method:        http.MethodPost,
		Path:          schema.Path,
		Summary:       "Create " + schema.Title,
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *rawInput) (*recordOutput, error) {
		fields, herr := decodeFields(schema, input.RawBody)
		if herr != nil {
			return nil, herr
		}
		it, err := cfg.Records.Create(ctx, name, fields)
		if err != nil {
			return nil, handleError(err)
		}
		log.Info().Str("id", it.ID).Msg("record created")
		return &recordOutput{Body: encodeItem(it)}, nil
	})

	type rawIDInput struct {
		ID      string `path:"id"`
		RawBody []byte
	}
	update := func(ctx context.Context, input *rawIDInput) (*recordOutput, error) {
		fields, herr := decodeFields(schema, input.RawBody)
		if herr != nil {
			return nil, herr
		}
		it, err := cfg.Records.Update(ctx, name, input.ID, fields)
		if err != nil {
			return nil, handleError(err)
		}
		log.Info().Str("id", it.ID).Msg("record updated")
		return &recordOutput{Body: encodeItem(it)}, nil
	}
	huma.Register(api, huma.Operation{
		OperationID: "update-" + name,
		Method:      http.MethodPut,
		Path:        schema.Path + "/{id}",
		Summary:     "Replace " + schema.Title,
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, update)
	huma.Register(api, huma.Operation{
		OperationID: "patch-" + name,
		Method:      http.MethodPatch,
		Path:        schema.Path + "/{id}",
		Summary:     "Update " + schema.Title,
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, update)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-" + name,
		Method:        http.MethodDelete,
		Path:          schema.Path + "/{id}",
		Summary:       "Delete " + schema.Title,
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := cfg.Records.Delete(ctx, name, input.ID); err != nil {
			return nil, handleError(err)
		}
		log.Info().Str("id", input.ID).Msg("record deleted")
		return &struct{}{}, nil
	})
}

// decodeFields parses a JSON record body and rejects missing required
// fields.
func decodeFields(schema resource.Schema, raw []byte) (map[string]any, huma.StatusError) {
	fields := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		}
	}
	delete(fields, "id")

	missing := map[string]any{}
	for _, f := range schema.Fields {
		if !f.Required {
			continue
		}
		v, ok := fields[f.Name]
		if !ok || v == nil || v == "" {
			missing[f.Name] = "required"
		}
	}
	if len(missing) > 0 {
		return nil, newAPIError(http.StatusUnprocessableEntity, "validation_failed", "missing required fields", missing)
	}
	return fields, nil
}
