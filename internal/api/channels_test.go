package api

import (
	"context"
	"dbuilder/internal/types"
	"net/http"

	"github.com/goccy/go-json"
)

func (s *IntegrationTestSuite) TestChannelLifecycle() {
	var published []types.Event
	s.publisher.SetOnPublish(func(ctx context.Context, arn string, payload []byte) error {
		var ev types.Event
		s.NoError(json.Unmarshal(payload, &ev))
		s.Equal("arn:events", arn)
		published = append(published, ev)
		return nil
	})

	var pick types.Pick
	s.decode(s.call(http.MethodGet, "/"+testTenant+"/names/r1", "", nil), http.StatusOK, &pick)

	s.assertMessage(s.call(http.MethodPut, "/"+testTenant+"/channels/c1", "", assignRequest{ReservationID: "r1"}), MsgUpdated)
	s.assertMessage(s.call(http.MethodPut, "/"+testTenant+"/channels/c1", "", assignRequest{ReservationID: "r1"}), MsgUnchanged)

	var bound struct {
		Name string `json:"name"`
	}
	s.decode(s.call(http.MethodGet, "/"+testTenant+"/channels/c1", "", nil), http.StatusOK, &bound)
	s.Equal(pick.Name, bound.Name)

	s.assertMessage(s.call(http.MethodDelete, "/"+testTenant+"/channels/c1", "", nil), MsgCleared)
	s.assertMessage(s.call(http.MethodDelete, "/"+testTenant+"/channels/c1", "", nil), MsgUnchanged)

	resp := s.call(http.MethodGet, "/"+testTenant+"/channels/c1", "", nil)
	s.assertFailureStatus(resp, http.StatusNotFound, "no name")

	s.Require().Len(published, 2)
	s.Equal(types.EventChannelAssigned, published[0].Type)
	s.Equal(types.EventChannelCleared, published[1].Type)
}

func (s *IntegrationTestSuite) TestAssignRequiresReservationID() {
	resp := s.call(http.MethodPut, "/"+testTenant+"/channels/c1", "", map[string]string{})
	s.assertFailureStatus(resp, http.StatusBadRequest, "reservationId is required")

	req, err := http.NewRequest(http.MethodPut, s.srv.URL+"/"+testTenant+"/channels/c1", nil)
	s.Require().NoError(err)
	resp, err = s.srv.Client().Do(req)
	s.Require().NoError(err)
	s.assertFailureStatus(resp, http.StatusBadRequest, "invalid json")
}
