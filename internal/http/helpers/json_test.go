package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httperrors "github.com/Poutchouli/SharedMailbox-editor/internal/http/errors"
)

func TestReadJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	newReq := func(ct, payload string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		return req
	}

	t.Run("ok with unknown fields", func(t *testing.T) {
		var b body
		err := ReadJSON(httptest.NewRecorder(), newReq("application/json; charset=utf-8", `{"name":"kenny","extra":1}`), &b)
		require.NoError(t, err)
		assert.Equal(t, "kenny", b.Name)
	})

	cases := map[string]struct {
		ct, payload, code string
	}{
		"wrong content type": {"text/plain", `{}`, "INVALID_JSON"},
		"empty body":         {"application/json", ``, "INVALID_JSON"},
		"malformed":          {"application/json", `{"name":`, "INVALID_JSON"},
		"too large":          {"application/json", `{"name":"` + strings.Repeat("a", MaxJSONBody) + `"}`, "FILE_TOO_LARGE"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var b body
			err := ReadJSON(httptest.NewRecorder(), newReq(tc.ct, tc.payload), &b)
			require.Error(t, err)
			assert.Equal(t, tc.code, httperrors.FromError(err).Code)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"n": 1})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}
