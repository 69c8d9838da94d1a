package tikaserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gobeaver/tikakit"
)

// EncryptedDocumentException is the diagnostic Tika Server reports for
// protected documents opened without the right password.
const EncryptedDocumentException = "org.apache.tika.exception.EncryptedDocumentException: Unable to process"

// encryptedExceptionName is what a 422 body must name to count as encrypted.
// Tika answers 422 for ordinary parse failures as well.
const encryptedExceptionName = "EncryptedDocumentException"

// ErrUnsupportedMediaType is returned when Tika has no parser for the document
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ErrUndeterminedLanguage is returned when Tika cannot identify the language
var ErrUndeterminedLanguage = errors.New("language could not be determined")

// maxErrorBody bounds how much of an error response is read
const maxErrorBody = 4 << 10

// StatusError is returned for non-2xx responses from Tika Server.
type StatusError struct {
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface
func (e *StatusError) Error() string {
	if errors.Is(e.Err, tikakit.ErrEncrypted) {
		return EncryptedDocumentException + ": " + e.Err.Error()
	}
	msg := fmt.Sprintf("tika server: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if line := firstLine(e.Body); line != "" {
		msg += ": " + line
	}
	return msg
}

// Unwrap returns the underlying error
func (e *StatusError) Unwrap() error {
	return e.Err
}

// checkResponse turns a non-2xx response into a *StatusError and closes its body.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	switch resp.StatusCode {
	case http.StatusUnprocessableEntity:
		if strings.Contains(se.Body, encryptedExceptionName) {
			se.Err = tikakit.ErrEncrypted
		}
	case http.StatusUnsupportedMediaType:
		se.Err = ErrUnsupportedMediaType
	}
	return se
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
