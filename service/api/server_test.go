package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ClassBank/tools/errs"

	"github.com/gin-gonic/gin"
)

func TestFailStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
	}{
		{errs.ErrUserNotFound, http.StatusNotFound},
		{errs.ErrAmbiguousUser, http.StatusNotFound}, // 歧义对外等同没找到
		{errs.ErrRoomNotFound, http.StatusNotFound},
		{errs.ErrWrongCredentials, http.StatusUnauthorized},
		{errs.ErrTokenExpired, http.StatusUnauthorized},
		{errs.ErrNotRoomMember, http.StatusForbidden},
		{errs.ErrNotTeamAdmin, http.StatusForbidden},
		{errs.ErrPartialBroadcast, http.StatusBadGateway},
		{errs.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{errs.ErrInternal, http.StatusInternalServerError},
	}

	for _, cse := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		fail(c, cse.err)
		if w.Code != cse.status {
			t.Fatalf("fail(%v) = %d, want %d", cse.err, w.Code, cse.status)
		}
	}
}
