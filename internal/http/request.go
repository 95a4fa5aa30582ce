package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/room-reservation/internal/application"
)

const maxRequestBody = 1 << 20

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errInvalidRequest carries DTO tag violations keyed by JSON field path.
type errInvalidRequest struct {
	fields map[string]string
}

func (e *errInvalidRequest) Error() string {
	return "request validation failed"
}

// decodeRequest reads a JSON body into dst and checks its validator tags.
// Decoding failures return errBadRequestBody; tag violations return
// *errInvalidRequest.
func decodeRequest(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	if err := requestValidator.Struct(dst); err != nil {
		var vErrs validator.ValidationErrors
		if !errors.As(err, &vErrs) {
			return fmt.Errorf("%w: %v", errBadRequestBody, err)
		}
		fields := make(map[string]string, len(vErrs))
		for _, fe := range vErrs {
			fields[fieldPath(fe)] = describeTag(fe)
		}
		return &errInvalidRequest{fields: fields}
	}
	return nil
}

// fieldPath strips the top level struct name from the validator namespace,
// so "createReservationRequest.time_slots[1].end" becomes "time_slots[1].end".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必須項目です。"
	case "max":
		return fmt.Sprintf("%s 以下で指定してください。", fe.Param())
	case "min":
		return fmt.Sprintf("%s 以上で指定してください。", fe.Param())
	case "oneof":
		return "次のいずれかを指定してください: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gtfield":
		return "開始日時より後を指定してください。"
	case "email":
		return "メールアドレスの形式が不正です。"
	case "dive":
		return "要素の形式が不正です。"
	}
	return "値が不正です。"
}

// writeDecodeError reports a failed decodeRequest.
func (r responder) writeDecodeError(w http.ResponseWriter, req *http.Request, err error) {
	var invalid *errInvalidRequest
	if errors.As(err, &invalid) {
		r.loggerFor(req.Context()).WarnContext(req.Context(), "request rejected", "error_kind", "bad_request", "fields", invalid.fields)
		r.writeJSON(req.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   "入力内容に誤りがあります。",
			Errors:    invalid.fields,
		})
		return
	}
	r.loggerFor(req.Context()).WarnContext(req.Context(), "failed to decode request", "error_kind", "bad_request", "error", err)
	r.writeJSON(req.Context(), w, http.StatusBadRequest, errorResponse{Message: errBadRequestBody.Error()})
}

// requirePrincipal returns the authenticated principal or writes 401.
func requirePrincipal(resp responder, w http.ResponseWriter, r *http.Request) (application.Principal, bool) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok || strings.TrimSpace(principal.Username) == "" {
		resp.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return application.Principal{}, false
	}
	return principal, true
}
