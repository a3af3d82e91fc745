package errutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errStorage = errors.New("storage down")

func TestHelpersKeepCause(t *testing.T) {
	err := ServiceUnavailable("ledger unavailable", errStorage)

	require.ErrorIs(t, err, errStorage)

	var be BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, StatusServiceUnavailable, be.Status())
	require.Equal(t, http.StatusServiceUnavailable, be.Code.HTTPStatus())
	require.Equal(t, "[service_unavailable] ledger unavailable: storage down", err.Error())
}

func TestJSONHidesCause(t *testing.T) {
	err := BadRequest("invalid order", errStorage, WithDetails(Detail{Field: "order", Message: "must be asc or desc"}))

	var be BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, http.StatusBadRequest, be.Code.HTTPStatus())

	body := be.JSON().(map[string]interface{})["error"].(map[string]interface{})
	require.Equal(t, "invalid order", body["message"])
	require.Len(t, body["details"], 1)
}

func TestToGRPCError(t *testing.T) {
	require.NoError(t, ToGRPCError(nil))

	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"unavailable", ServiceUnavailable("down", errStorage), codes.Unavailable},
		{"wrapped bad request", fmt.Errorf("page: %w", BadRequest("invalid order", nil)), codes.InvalidArgument},
		{"internal", Internal("boom", nil), codes.Internal},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", fmt.Errorf("ping: %w", context.Canceled), codes.Canceled},
		{"plain", errStorage, codes.Internal},
		{"status", status.Error(codes.NotFound, "gone"), codes.NotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, ok := status.FromError(ToGRPCError(tc.err))
			require.True(t, ok)
			require.Equal(t, tc.code, st.Code())
		})
	}
}
