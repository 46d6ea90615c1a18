package main

import (
	"os"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAdminCommands_RequireLogin(t *testing.T) {
	c := newCLI(t, newTestAPI(t))

	for _, args := range [][]string{{"inbox"}, {"thread", "a@x.com"}, {"notifications"}, {"delete", "x"}} {
		_, err := c.run("", args...)
		if err == nil || !strings.Contains(err.Error(), "not logged in") {
			t.Errorf("%v: expected not-logged-in error, got %v", args, err)
		}
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	c := newCLI(t, newTestAPI(t))

	if _, err := c.run("wrong\n", "login", "--email", testAdminEmail); err == nil {
		t.Fatal("expected login to fail")
	}
	if _, err := os.Stat(c.configPath); !os.IsNotExist(err) {
		t.Errorf("config should not be written on failed login, stat err = %v", err)
	}
}

func TestContactThenAdminWorkflow(t *testing.T) {
	c := newCLI(t, newTestAPI(t))

	out := c.mustRun("", "contact", "--name", "Jane", "--email", "jane@x.com", "--subject", "Hello", "--message", "Are you free?")
	if !strings.Contains(out, "Message sent") {
		t.Fatalf("unexpected contact output: %s", out)
	}

	out = c.mustRun(testAdminPassword+"\n", "login", "--email", testAdminEmail)
	if !strings.Contains(out, "Logged in as "+testAdminEmail) {
		t.Fatalf("unexpected login output: %s", out)
	}

	out = c.mustRun("", "inbox")
	if !strings.Contains(out, "jane@x.com") || !strings.Contains(out, "1 unread") {
		t.Fatalf("inbox should list Jane with one unread message, got: %s", out)
	}

	out = c.mustRun("", "thread", "jane@x.com")
	if !strings.Contains(out, "[Hello] Are you free?") {
		t.Fatalf("thread should show the form body, got: %s", out)
	}
	id := messageIDFromThread(t, out)

	c.mustRun("", "reply", id, "Yes,", "next", "week")
	out = c.mustRun("", "thread", "jane@x.com")
	if !strings.Contains(out, "> Yes, next week") {
		t.Fatalf("thread should show the reply, got: %s", out)
	}
	if !strings.Contains(c.mustRun("", "inbox"), "0 unread") {
		t.Error("reply should mark the message read")
	}

	c.mustRun("", "read", id, "--unread")
	if !strings.Contains(c.mustRun("", "inbox"), "1 unread") {
		t.Error("read --unread should flip the message back")
	}

	out = c.mustRun("", "notifications")
	if !strings.Contains(out, "Jane") {
		t.Errorf("submit should have produced a notification, got: %s", out)
	}

	c.mustRun("", "delete", id)
	if !strings.Contains(c.mustRun("", "inbox"), "No messages") {
		t.Error("delete should empty the inbox")
	}

	c.mustRun("", "logout")
	if _, err := c.run("", "inbox"); err == nil {
		t.Error("inbox should fail after logout")
	}
}

func TestReply_EmptyTextRejected(t *testing.T) {
	c := newCLI(t, newTestAPI(t))
	c.mustRun(testAdminPassword+"\n", "login", "--email", testAdminEmail)

	_, err := c.run("", "reply", "some-id", "   ")
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("expected empty reply error, got %v", err)
	}
}

func TestChat_SendsEachLine(t *testing.T) {
	c := newCLI(t, newTestAPI(t))

	c.mustRun("first\n\nsecond\n/quit\nnever sent\n", "chat", "--email", "bob@x.com")

	c.mustRun(testAdminPassword+"\n", "login", "--email", testAdminEmail)
	out := c.mustRun("", "thread", "bob@x.com")
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("expected both lines in the thread, got: %s", out)
	}
	if strings.Contains(out, "never sent") {
		t.Errorf("lines after /quit must not be sent, got: %s", out)
	}
	if !strings.Contains(out, "Visitor") {
		t.Errorf("blank name should default to Visitor, got: %s", out)
	}
}

func TestChat_RemembersIdentity(t *testing.T) {
	c := newCLI(t, newTestAPI(t))
	c.mustRun("hello\n", "chat", "--name", "Ann", "--email", "ann@x.com")

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Name != "Ann" || cfg.Email != "ann@x.com" {
		t.Errorf("identity not saved: %+v", cfg)
	}

	// A second session needs no flags.
	out := c.mustRun("/quit\n", "chat")
	if !strings.Contains(out, "hello") {
		t.Errorf("earlier message should be shown on rejoin, got: %s", out)
	}
}

func TestContact_RequiresEmail(t *testing.T) {
	c := newCLI(t, newTestAPI(t))
	_, err := c.run("", "contact", "--message", "hi")
	if err == nil || !strings.Contains(err.Error(), "email") {
		t.Errorf("expected email error, got %v", err)
	}
}

func TestContact_ReadsBodyFromStdin(t *testing.T) {
	c := newCLI(t, newTestAPI(t))
	c.mustRun("piped body\n", "contact", "--email", "p@x.com")

	c.mustRun(testAdminPassword+"\n", "login", "--email", testAdminEmail)
	if out := c.mustRun("", "thread", "p@x.com"); !strings.Contains(out, "piped body") {
		t.Errorf("expected stdin body in thread, got: %s", out)
	}
}

func TestHashPassword(t *testing.T) {
	c := newCLI(t, "http://unused.invalid/api")
	out := c.mustRun("s3cret\n", "hash-password")

	hash := strings.TrimSpace(out)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("output is not a bcrypt hash of the input: %v", err)
	}
}

// messageIDFromThread returns the id column of the first thread line.
func messageIDFromThread(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		// "* 2026-01-02 15:04  <id>  <name>"
		if len(fields) >= 4 && fields[0] == "*" {
			return fields[3]
		}
	}
	t.Fatalf("no message line in thread output: %s", out)
	return ""
}
