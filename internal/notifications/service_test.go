package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"etdbridge/internal/config"
)

func TestSubmissionReadySingleResourceHasNoManualSection(t *testing.T) {
	msg := SubmissionReady("lib@example.edu", "etd_1", "etd_1_Output.xml", 1, nil)
	if msg.Subject != "etd_1 is ready for upload" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if msg.Body != "etd_1/etd_1_Output.xml is ready to be uploaded.\n" {
		t.Fatalf("unexpected body %q", msg.Body)
	}
	if hasManualSection(msg) {
		t.Fatal("single-resource success must not carry a manual-attachment list")
	}
}

func TestSubmissionReadyMultipleResourcesAlwaysListsManualFiles(t *testing.T) {
	withFiles := SubmissionReady("lib@example.edu", "etd_2", "etd_2_Output.xml", 3, []string{"data.csv", "video.mp4"})
	if !hasManualSection(withFiles) {
		t.Fatal("expected manual-attachment section")
	}
	if !strings.Contains(withFiles.Body, "  - data.csv\n  - video.mp4\n") {
		t.Fatalf("expected file list in body %q", withFiles.Body)
	}
	empty := SubmissionReady("lib@example.edu", "etd_3", "etd_3_Output.xml", 2, nil)
	if !hasManualSection(empty) || !strings.Contains(empty.Body, "(none)") {
		t.Fatalf("expected manual section with none marker, got %q", empty.Body)
	}
}

func TestSubmissionFailedMessage(t *testing.T) {
	msg := SubmissionFailed("lib@example.edu", "/intake/theses/etd_9.zip", "UnresolvedReference", "no published file for \"x.pdf\"")
	if msg.Subject != "Processing of etd_9.zip FAILED!" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"/intake/theses/etd_9.zip", "UnresolvedReference", "x.pdf"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("expected %q in body %q", want, msg.Body)
		}
	}
}

func TestNtfyServiceSendsPayload(t *testing.T) {
	var (
		gotTitle string
		gotTags  string
		gotBody  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.Transport = config.TransportNtfy
	svc := NewService(&cfg)
	msg := Test(srv.URL)
	if err := svc.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if gotTitle != msg.Subject || gotTags != "etdbridge,test" || gotBody != msg.Body {
		t.Fatalf("unexpected request title=%q tags=%q body=%q", gotTitle, gotTags, gotBody)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic disabled", http.StatusForbidden)
	}))
	defer srv.Close()

	svc := newNtfyService(time.Second)
	err := svc.Send(context.Background(), Test(srv.URL))
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

func TestSMTPServiceFormatsMail(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	svc := newSMTPService("smtp.example.edu", "bot", "secret", "etdbridge@localhost", time.Minute)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	svc.send = func(_ context.Context, addr, user, password, from string, to []string, msg []byte) error {
		if user != "bot" || password != "secret" || from != "etdbridge@localhost" {
			t.Errorf("unexpected credentials %q %q %q", user, password, from)
		}
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	msg := SubmissionReady("lib@example.edu", "etd_1", "etd_1_Output.xml", 2, []string{"a.csv"})
	if err := svc.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if gotAddr != "smtp.example.edu:465" {
		t.Fatalf("expected implicit TLS port, got %q", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "lib@example.edu" {
		t.Fatalf("unexpected recipients %v", gotTo)
	}
	for _, want := range []string{
		"To: lib@example.edu\r\n",
		"Subject: etd_1 is ready for upload\r\n",
		"Content-Type: text/plain; charset=utf-8\r\n",
		"\r\n\r\netd_1/etd_1_Output.xml is ready to be uploaded.\r\n",
		"  - a.csv\r\n",
	} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("expected %q in message:\n%s", want, gotMsg)
		}
	}
}

func TestSMTPServiceWrapsDeliveryErrors(t *testing.T) {
	svc := newSMTPService("smtp.example.edu:587", "bot", "secret", "x@y", time.Minute)
	svc.send = func(context.Context, string, string, string, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	err := svc.Send(context.Background(), Test("ops@example.edu"))
	if err == nil || !strings.Contains(err.Error(), "ops@example.edu") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if svc.addr != "smtp.example.edu:587" {
		t.Fatalf("explicit port must be kept, got %q", svc.addr)
	}
}

func TestSMTPServiceBoundsDeliveryByRequestTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Transport = config.TransportSMTP
	cfg.Notifications.SMTPServer = "smtp.example.edu"
	cfg.Notifications.RequestTimeout = 2
	svc, ok := NewService(&cfg).(*smtpService)
	if !ok {
		t.Fatalf("expected smtp service, got %T", NewService(&cfg))
	}
	var deadline time.Time
	var hasDeadline bool
	svc.send = func(ctx context.Context, _, _, _, _ string, _ []string, _ []byte) error {
		deadline, hasDeadline = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	}

	start := time.Now()
	err := svc.Send(context.Background(), Test("ops@example.edu"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !hasDeadline || deadline.Sub(start) > 3*time.Second {
		t.Fatalf("expected a deadline about 2s out, got %v (set=%v)", deadline.Sub(start), hasDeadline)
	}
}

func TestNewServiceNoneIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Transport = config.TransportNone
	if err := NewService(&cfg).Send(context.Background(), Message{}); err != nil {
		t.Fatalf("noop Send returned error: %v", err)
	}
}

func hasManualSection(msg Message) bool {
	return strings.Contains(msg.Body, "must be added by hand")
}
