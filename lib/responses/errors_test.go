package responses

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
)

func TestClientErrorsNotAllowedForSentry(t *testing.T) {
	assert.False(t, isErrAllowedForSentry(echo.NewHTTPError(http.StatusBadRequest, BadArgumentsError)))
	assert.False(t, isErrAllowedForSentry(echo.ErrNotFound))
}

func TestServerErrorsAllowedForSentry(t *testing.T) {
	assert.True(t, isErrAllowedForSentry(echo.NewHTTPError(http.StatusBadGateway, GeneralServerError)))
}

func TestNonErrorResponseErrorsAllowedForSentry(t *testing.T) {
	err := errors.New("random error")

	isAllowed := isErrAllowedForSentry(err)
	assert.True(t, isAllowed)
}

func TestHTTPErrorHandlerWritesErrorBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(errors.New("boom"), c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), GeneralServerError.Message)

	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	HTTPErrorHandler(echo.NewHTTPError(http.StatusBadRequest, BadArgumentsError), c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), BadArgumentsError.Message)
}

func TestFrames(t *testing.T) {
	ev := &nostr.Event{ID: "abc", Kind: 1}
	frame := Event("sub", ev)
	got, ok := frame.Event()
	assert.True(t, ok)
	assert.Same(t, ev, got)

	_, ok = EOSE("sub").Event()
	assert.False(t, ok)
	assert.Equal(t, LabelNotice, Notice("x").Label())
	assert.Equal(t, "", Frame{}.Label())

	raw, err := json.Marshal(OK("abc", false, "invalid signature"))
	assert.NoError(t, err)
	assert.Equal(t, `["OK","abc",false,"invalid signature"]`, string(raw))
}
