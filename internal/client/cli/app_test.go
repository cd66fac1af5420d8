package cli

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum/internal/client/config"
)

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

type stubRequester struct {
	sent        []string
	responses   map[string]string
	uploaded    string
	uploadReply string
	download    string
	downloadErr error
}

func (s *stubRequester) Send(command string) (string, error) {
	s.sent = append(s.sent, command)
	if r, ok := s.responses[command]; ok {
		return r, nil
	}
	return "ERROR: Unknown command", nil
}

func (s *stubRequester) Upload(user, title, filename string, src io.Reader) (string, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	s.uploaded = string(b)
	return s.uploadReply, nil
}

func (s *stubRequester) Download(title, filename string, dst io.Writer) error {
	if s.downloadErr != nil {
		return s.downloadErr
	}
	_, err := io.WriteString(dst, s.download)
	return err
}

func (s *stubRequester) Close() error { return nil }

func newTestApp(input string, stub *stubRequester) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cfg := &config.Config{}
	cfg.LoadDefaults()
	app := &App{
		config: cfg,
		client: stub,
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    out,
	}
	return app, out
}

func TestAuthenticate_ExistingUser(t *testing.T) {
	stub := &stubRequester{responses: map[string]string{
		"LOGIN alice":    "PASSWORD_REQUIRED",
		"AUTH alice pw1": "Login successful",
	}}
	app, out := newTestApp("alice\npw1\n", stub)

	require.NoError(t, app.authenticate())

	assert.Equal(t, "alice", app.userName)
	assert.Contains(t, out.String(), "Welcome to the forum, alice!")
	assert.Equal(t, []string{"LOGIN alice", "AUTH alice pw1"}, stub.sent)
}

func TestAuthenticate_NewUser(t *testing.T) {
	stub := &stubRequester{responses: map[string]string{
		"LOGIN bob":        "NEW_USER",
		"REGISTER bob pw2": "Registration successful",
	}}
	app, out := newTestApp("bob\npw2\n", stub)

	require.NoError(t, app.authenticate())

	assert.Equal(t, "bob", app.userName)
	assert.Contains(t, out.String(), "Welcome to the forum, bob!")
}

func TestAuthenticate_WrongPasswordThenSuccess(t *testing.T) {
	stub := &stubRequester{responses: map[string]string{
		"LOGIN alice":      "PASSWORD_REQUIRED",
		"AUTH alice wrong": "ERROR: Invalid password",
		"AUTH alice right": "Login successful",
	}}
	app, out := newTestApp("alice\nwrong\nalice\nright\n", stub)

	require.NoError(t, app.authenticate())

	assert.Equal(t, "alice", app.userName)
	assert.Contains(t, out.String(), "ERROR: Invalid password")
}

func TestAuthenticate_EmptyNameRepromptsWithoutSending(t *testing.T) {
	stub := &stubRequester{responses: map[string]string{
		"LOGIN carol":    "PASSWORD_REQUIRED",
		"AUTH carol pw3": "Login successful",
	}}
	app, out := newTestApp("\ncarol\npw3\n", stub)

	require.NoError(t, app.authenticate())

	assert.Contains(t, out.String(), "ERROR: Name required!")
	assert.Equal(t, []string{"LOGIN carol", "AUTH carol pw3"}, stub.sent)
}

func TestDispatch_SendsIdentityWithCommands(t *testing.T) {
	stub := &stubRequester{responses: map[string]string{
		"CRT alice demo":       "Thread demo created",
		"MSG alice demo hi all": "Message posted",
		"DLT alice demo 2":     "Message deleted",
		"RMV alice demo":       "Thread and related files removed",
	}}
	app, out := newTestApp("", stub)
	app.userName = "alice"

	app.dispatch("CRT demo")
	app.dispatch("MSG demo hi all")
	app.dispatch("DLT demo 2")
	app.dispatch("RMV demo")

	assert.Equal(t, []string{
		"CRT alice demo",
		"MSG alice demo hi all",
		"DLT alice demo 2",
		"RMV alice demo",
	}, stub.sent)
	assert.Contains(t, out.String(), "Thread demo created")
	assert.Contains(t, out.String(), "Message posted")
}

func TestDispatch_LocalValidation(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"lowercase command", "crt demo", "ERROR: Commands must be UPPERCASE"},
		{"unknown command", "NOPE", "ERROR: Invalid command."},
		{"args for LST", "LST extra", "ERROR: No arguments"},
		{"MSG without body", "MSG demo", "Input with: MSG <thread_title> <message>"},
		{"multiword title", "CRT two words", "ERROR: Invalid title"},
		{"EDT bad number", "EDT demo zero text", "ERROR: Invalid message number"},
		{"EDT zero number", "EDT demo 0 text", "ERROR: Invalid message number"},
		{"DLT missing number", "DLT demo", "Input with: DLT <thread_title> <message_number>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubRequester{}
			app, out := newTestApp("", stub)
			app.userName = "alice"

			app.dispatch(tt.line)

			assert.Contains(t, out.String(), tt.want)
			assert.Empty(t, stub.sent, "local validation must not reach the server")
		})
	}
}

func TestDispatch_ReadThreadFormatsContent(t *testing.T) {
	stub := &stubRequester{responses: map[string]string{
		"RDT demo": "1 alice: hello",
	}}
	app, out := newTestApp("", stub)
	app.userName = "alice"

	app.dispatch("RDT demo")

	assert.Contains(t, out.String(), "---Thread: demo\n1 alice: hello\n---")
}

func TestDispatch_ExitStopsLoop(t *testing.T) {
	stub := &stubRequester{responses: map[string]string{
		"XIT alice": "Goodbye alice!",
	}}
	app, out := newTestApp("", stub)
	app.userName = "alice"
	app.running = true

	app.dispatch("XIT")

	assert.False(t, app.running)
	assert.Contains(t, out.String(), "Goodbye alice!")
}

func TestUploadFile(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("notes.txt", []byte("file body"), 0o600))

	stub := &stubRequester{
		responses:   map[string]string{"UPD alice demo notes.txt": "Upload ready"},
		uploadReply: "UPLOAD_SUCCESS",
	}
	app, out := newTestApp("", stub)
	app.userName = "alice"

	app.dispatch("UPD demo notes.txt")

	assert.Equal(t, "file body", stub.uploaded)
	assert.Contains(t, out.String(), "Sent 'notes.txt'")
	assert.Contains(t, out.String(), "Server: UPLOAD_SUCCESS")
}

func TestUploadFile_MissingLocalFile(t *testing.T) {
	chdir(t, t.TempDir())

	stub := &stubRequester{}
	app, out := newTestApp("", stub)
	app.userName = "alice"

	app.dispatch("UPD demo ghost.txt")

	assert.Contains(t, out.String(), "ghost.txt not found")
	assert.Empty(t, stub.sent)
}

func TestUploadFile_Rejected(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("notes.txt", []byte("x"), 0o600))

	stub := &stubRequester{
		responses: map[string]string{"UPD alice demo notes.txt": "ERROR: File 'notes.txt' already exists"},
	}
	app, out := newTestApp("", stub)
	app.userName = "alice"

	app.dispatch("UPD demo notes.txt")

	assert.Contains(t, out.String(), "Upload rejected:ERROR: File 'notes.txt' already exists")
	assert.Empty(t, stub.uploaded)
}

func TestDownloadFile(t *testing.T) {
	chdir(t, t.TempDir())

	stub := &stubRequester{
		responses: map[string]string{"DWN alice demo report.pdf": "Download ready report.pdf"},
		download:  "pdf bytes",
	}
	app, out := newTestApp("", stub)
	app.userName = "alice"

	app.dispatch("DWN demo report.pdf")

	data, err := os.ReadFile("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))
	assert.Contains(t, out.String(), "Received 'report.pdf'")
}

func TestDownloadFile_LocalFileExists(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.pdf"), []byte("old"), 0o600))

	stub := &stubRequester{}
	app, out := newTestApp("", stub)
	app.userName = "alice"

	app.dispatch("DWN demo report.pdf")

	assert.Contains(t, out.String(), "Local file report.pdf already exists")
	assert.Empty(t, stub.sent)
}

func TestDownloadFile_FailureRemovesPartialFile(t *testing.T) {
	chdir(t, t.TempDir())

	stub := &stubRequester{
		responses:   map[string]string{"DWN alice demo report.pdf": "Download ready report.pdf"},
		downloadErr: io.ErrUnexpectedEOF,
	}
	app, out := newTestApp("", stub)
	app.userName = "alice"

	app.dispatch("DWN demo report.pdf")

	assert.Contains(t, out.String(), "Download failed:")
	_, err := os.Stat("report.pdf")
	assert.True(t, os.IsNotExist(err))
}
