package web

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const maxBodyBytes = 1 << 20

//go:embed schemas/*.json
var schemaFS embed.FS

type schemas struct {
	createLesson *gojsonschema.Schema
	quizAction   *gojsonschema.Schema
}

func loadSchemas() (*schemas, error) {
	load := func(name string) (*gojsonschema.Schema, error) {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		sch, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return sch, nil
	}

	createLesson, err := load("create_lesson.json")
	if err != nil {
		return nil, err
	}
	quizAction, err := load("quiz_action.json")
	if err != nil {
		return nil, err
	}
	return &schemas{createLesson: createLesson, quizAction: quizAction}, nil
}

// validationError is a request body that failed schema validation.
type validationError struct {
	msg     string
	details []string
}

func (e *validationError) Error() string { return e.msg }

// readBody reads the request body and validates it against sch.
func readBody(w http.ResponseWriter, r *http.Request, sch *gojsonschema.Schema) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &validationError{msg: "request body too large"}
		}
		return nil, &validationError{msg: "failed to read request body"}
	}

	result, err := sch.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, &validationError{msg: "invalid JSON body"}
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, &validationError{
			msg:     "request body does not match schema: " + strings.Join(details, "; "),
			details: details,
		}
	}
	return body, nil
}

func writeValidationError(w http.ResponseWriter, err error) {
	var ve *validationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.msg, Details: ve.details})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}
