package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewHTTPClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func accountJSON() string {
	return `{"user":{"uid":"EMP1001","status":"Active",` +
		`"personal":{"name":"Asha Verma","phone":"9876543210","email":"asha.verma@example.com"},` +
		`"bank":{"bank":"SBI","branch":"Main","ifsc":"SBIN0000691","acc":"3521000123456789"},` +
		`"security":{"aadhaar":"123412341234"}},"key":"records/EMP1001"}`
}

func TestLoginParsesAccountAndKey(t *testing.T) {
	var gotBody map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(accountJSON()))
	})

	res, err := client.Login(context.Background(), "EMP1001", "correct-horse-9")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Account.UID != "EMP1001" || res.Key != "records/EMP1001" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Account.Personal.Email != "asha.verma@example.com" {
		t.Fatalf("nested personal block not parsed: %+v", res.Account.Personal)
	}
	if res.Account.Bank.IFSC != "SBIN0000691" {
		t.Fatalf("nested bank block not parsed: %+v", res.Account.Bank)
	}
	if gotBody["uid"] != "EMP1001" || gotBody["password"] != "correct-horse-9" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
}

func TestLookupQueriesByIdentifier(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/get-user" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("uid"); got != "asha.verma@example.com" {
			t.Errorf("unexpected identifier: %q", got)
		}
		w.Write([]byte(accountJSON()))
	})

	res, err := client.Lookup(context.Background(), "asha.verma@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if res.Account.UID != "EMP1001" {
		t.Fatalf("unexpected account: %+v", res.Account)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"backend down", http.StatusBadGateway, ErrUnavailable},
		{"teapot", http.StatusTeapot, ErrRejected},
	}

	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := client.Login(context.Background(), "EMP1001", "pw")
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestMalformedResponses(t *testing.T) {
	garbage := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})
	if _, err := garbage.Lookup(context.Background(), "EMP1001"); !errors.Is(err, ErrSchema) {
		t.Errorf("garbage body: got %v, want ErrSchema", err)
	}

	missingUser := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"key":"records/EMP1001"}`))
	})
	if _, err := missingUser.Lookup(context.Background(), "EMP1001"); !errors.Is(err, ErrSchema) {
		t.Errorf("missing user: got %v, want ErrSchema", err)
	}

	emptyUID := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"uid":""},"key":"k"}`))
	})
	if _, err := emptyUID.Login(context.Background(), "EMP1001", "pw"); !errors.Is(err, ErrSchema) {
		t.Errorf("empty uid: got %v, want ErrSchema", err)
	}
}

func TestUpdateActivityPayloadShape(t *testing.T) {
	var got struct {
		DBKey        string   `json:"dbKey"`
		ActivityData Activity `json:"activityData"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/update-activity" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true}`))
	})

	err := client.UpdateActivity(context.Background(), "records/EMP1001", Activity{
		State: "Online",
		IP:    "10.0.0.9",
	})
	if err != nil {
		t.Fatalf("update activity: %v", err)
	}
	if got.DBKey != "records/EMP1001" || got.ActivityData.State != "Online" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestUpdatePasswordRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"policy"}`))
	})
	err := client.UpdatePassword(context.Background(), "EMP1001", "new-pass-22")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("got %v, want ErrRejected", err)
	}
}

func TestSubmitChangeRequestSerializesChanges(t *testing.T) {
	var got ChangeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true}`))
	})

	req := ChangeRequest{
		RequestID: "REQ-1",
		UID:       "EMP1001",
		Name:      "Asha Verma",
		Changes:   map[string]string{"phone": "9123456780"},
		Status:    "Pending",
	}
	if err := client.SubmitChangeRequest(context.Background(), req); err != nil {
		t.Fatalf("submit change request: %v", err)
	}
	if got.RequestID != "REQ-1" || got.Changes["phone"] != "9123456780" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestDashboardEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/get-messages":
			w.Write([]byte(`{"messages":[{"sender":"Admin","text":"Site closed Friday","timestamp":1756700000}]}`))
		case "/api/send-message":
			if r.Method != http.MethodPost {
				t.Errorf("send-message must POST, got %s", r.Method)
			}
			w.Write([]byte(`{"success":true}`))
		case "/api/get-incharges":
			w.Write([]byte(`{"incharges":[{"name":"R. Gupta","post":"Supervisor","phone":"9000000001"}]}`))
		case "/api/get-payslips":
			w.Write([]byte(`{"payslips":[{"slipId":"PS-07","uid":"EMP1001","salaryMonth":"2026-08","netPay":"54000"}]}`))
		case "/api/get-attendance":
			if r.URL.Query().Get("month") != "2026-08" {
				t.Errorf("month not forwarded: %q", r.URL.Query().Get("month"))
			}
			w.Write([]byte(`{"attendance":{"present":22,"leaves":2,"totalDays":26}}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	msgs, err := client.Messages(ctx, "EMP1001")
	if err != nil || len(msgs) != 1 || msgs[0].Sender != "Admin" {
		t.Fatalf("messages: %v %+v", err, msgs)
	}
	incharges, err := client.Incharges(ctx)
	if err != nil || len(incharges) != 1 || incharges[0].Post != "Supervisor" {
		t.Fatalf("incharges: %v %+v", err, incharges)
	}
	slips, err := client.Payslips(ctx, "EMP1001")
	if err != nil || len(slips) != 1 || slips[0].NetPay != "54000" {
		t.Fatalf("payslips: %v %+v", err, slips)
	}
	att, err := client.MonthAttendance(ctx, "EMP1001", "2026-08")
	if err != nil || att.Present != 22 {
		t.Fatalf("attendance: %v %+v", err, att)
	}
	if err := client.SendMessage(ctx, Message{Sender: "EMP1001", Text: "noted"}); err != nil {
		t.Fatalf("send message: %v", err)
	}

	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	if _, err := empty.MonthAttendance(ctx, "EMP1001", "2026-08"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing attendance: got %v, want ErrNotFound", err)
	}
}

func TestTransportFailureMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := NewHTTPClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	srv.Close()

	if _, err := client.Lookup(context.Background(), "EMP1001"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPClient("", nil); err == nil {
		t.Fatal("empty base url must be rejected")
	}
}
