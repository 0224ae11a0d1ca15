package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	mediasvc "github.com/ivankudzin/loveconnect/backend/internal/services/media"
)

const (
	profileImageField = "profileImage"
	multipartOverhead = 1 << 20
)

var (
	errFormTooLarge = errors.New("multipart body too large")
	errFormInvalid  = errors.New("invalid multipart form")
)

// profileForm is a parsed register/update form. Text fields missing from the
// form stay nil so updates can tell "absent" from "set".
type profileForm struct {
	values map[string][]string
	image  *mediasvc.Upload
	file   multipart.File
}

func parseProfileForm(w http.ResponseWriter, r *http.Request, maxUpload int64) (*profileForm, error) {
	if maxUpload <= 0 {
		maxUpload = mediasvc.DefaultMaxUploadBytes
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errFormTooLarge
		}
		return nil, errFormInvalid
	}

	form := &profileForm{values: r.MultipartForm.Value}

	file, header, err := r.FormFile(profileImageField)
	switch {
	case err == nil:
		if header.Size > maxUpload {
			_ = file.Close()
			return nil, mediasvc.ErrTooLarge
		}
		form.file = file
		form.image = &mediasvc.Upload{
			FileName: header.Filename,
			Size:     header.Size,
			Body:     file,
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		return nil, errFormInvalid
	}

	return form, nil
}

func (f *profileForm) Close() {
	if f != nil && f.file != nil {
		_ = f.file.Close()
	}
}

func (f *profileForm) text(key string) string {
	if values := f.values[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// optional returns nil when key is missing or blank.
func (f *profileForm) optional(key string) *string {
	values, ok := f.values[key]
	if !ok || len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return nil
	}
	v := values[0]
	return &v
}

// present returns nil only when key is missing, so a blank bio clears it.
func (f *profileForm) present(key string) *string {
	values, ok := f.values[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func (f *profileForm) age() (*int, error) {
	raw := f.optional("age")
	if raw == nil {
		return nil, nil
	}
	age, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return nil, errors.New("age must be a number")
	}
	return &age, nil
}

// interests accepts a JSON array string, as the web client sends it, or
// repeated form values.
func (f *profileForm) interests() (*[]string, error) {
	values, ok := f.values["interests"]
	if !ok {
		return nil, nil
	}

	out := make([]string, 0, len(values))
	if len(values) == 1 {
		raw := strings.TrimSpace(values[0])
		if strings.HasPrefix(raw, "[") {
			if err := json.Unmarshal([]byte(raw), &out); err != nil {
				return nil, errors.New("interests must be a JSON array of strings")
			}
			return &out, nil
		}
	}
	out = append(out, values...)
	return &out, nil
}
