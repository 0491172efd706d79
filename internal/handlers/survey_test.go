package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"facerate-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRenderMessageUsesLayout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &SurveyHandler{log: zap.NewNop(), Survey: &models.Survey{Title: "Faces"}}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("csrf_token", "tok")
	c.Set("csp_nonce", "n0nce")

	h.renderMessage(c, http.StatusInternalServerError, "Could not start <survey>")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, "<title>Faces</title>")
	assert.Contains(t, body, `<section class="message"><p>Could not start &lt;survey&gt;</p></section>`)
}
