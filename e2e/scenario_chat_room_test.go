package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ChatRoomSuite struct {
	BaseHTTPSuite
}

func TestChatRoomSuite(t *testing.T) {
	suite.Run(t, new(ChatRoomSuite))
}

// Test_Full_Conversation_Flow drives a whole conversation against a
// live server: register two participants, exchange public and private
// messages, verify visibility, then delete a message.
func (s *ChatRoomSuite) Test_Full_Conversation_Flow() {
	t := s.T()
	// Unique names keep reruns against the same server from colliding
	alice := fmt.Sprintf("alice-%d", time.Now().UnixNano())
	bob := fmt.Sprintf("bob-%d", time.Now().UnixNano())

	s.Banner(t, "REGISTER")
	status, _ := s.Do(t, http.MethodPost, "/participants", "", `{"name":"`+alice+`"}`)
	s.Require().Equal(http.StatusCreated, status)
	status, _ = s.Do(t, http.MethodPost, "/participants", "", `{"name":"`+bob+`"}`)
	s.Require().Equal(http.StatusCreated, status)

	status, _ = s.Do(t, http.MethodPost, "/participants", "", `{"name":"`+alice+`"}`)
	s.Require().Equal(http.StatusConflict, status)

	s.Banner(t, "POST MESSAGES")
	status, body := s.Do(t, http.MethodPost, "/messages", alice,
		`{"to":"Todos","text":"hello everyone","type":"message"}`)
	s.Require().Equal(http.StatusCreated, status)

	var posted struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal([]byte(body), &posted))

	status, _ = s.Do(t, http.MethodPost, "/messages", alice,
		`{"to":"`+bob+`","text":"psst","type":"private_message"}`)
	s.Require().Equal(http.StatusCreated, status)

	s.Banner(t, "RETRIEVE")
	status, body = s.Do(t, http.MethodGet, "/messages", bob, "")
	s.Require().Equal(http.StatusOK, status)
	s.Require().Contains(body, "hello everyone")
	s.Require().Contains(body, "psst")

	s.Banner(t, "DELETE")
	status, _ = s.Do(t, http.MethodDelete, "/messages/"+posted.ID, bob, "")
	s.Require().Equal(http.StatusUnauthorized, status)

	status, _ = s.Do(t, http.MethodDelete, "/messages/"+posted.ID, alice, "")
	s.Require().Equal(http.StatusOK, status)

	s.Banner(t, "HEARTBEAT")
	status, _ = s.Do(t, http.MethodPost, "/status", alice, "")
	s.Require().Equal(http.StatusOK, status)
	status, _ = s.Do(t, http.MethodPost, "/status", "nobody-at-all", "")
	s.Require().Equal(http.StatusNotFound, status)
}
