// Package cli implements the interactive forum client: the
// authentication dialog, the command loop, and the two-phase file
// transfers (UDP readiness check followed by the TCP transfer).
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"forum/internal/client"
	"forum/internal/client/config"
	"forum/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// requester defines the network surface the CLI needs. The real
// client.Client satisfies this interface; tests provide a stub.
type requester interface {
	Send(command string) (string, error)
	Upload(user, title, filename string, src io.Reader) (string, error)
	Download(title, filename string, dst io.Writer) error
	Close() error
}

type App struct {
	config   *config.Config
	client   requester
	userName string
	running  bool
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(cfg *config.Config) (*App, error) {
	c, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	return &App{config: cfg, client: c, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

// Run authenticates the user and processes commands until XIT or EOF.
func (a *App) Run() error {
	defer a.client.Close()

	if err := a.authenticate(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	a.printHelp()

	a.running = true
	for a.running {
		line, err := getSimpleText(a.reader, a.userName+"> ", a.out)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}
		a.dispatch(line)
	}
	return nil
}

// send wraps the requester, turning an exhausted retry budget into the
// same user-facing string a live server would never produce.
func (a *App) send(command string) (string, error) {
	resp, err := a.client.Send(command)
	if err != nil {
		if errors.Is(err, common.ErrNoResponse) {
			return "ERROR: No response", nil
		}
		return "", err
	}
	return resp, nil
}

// authenticate runs the LOGIN/AUTH/REGISTER dialog until a session is
// established.
func (a *App) authenticate() error {
	for {
		userName, err := getSimpleText(a.reader, "Enter username: ", a.out)
		if err != nil {
			return err
		}
		if userName == "" {
			fmt.Fprintln(a.out, "ERROR: Name required!")
			continue
		}

		resp, err := a.send("LOGIN " + userName)
		if err != nil {
			return err
		}

		switch resp {
		case "PASSWORD_REQUIRED":
			password, err := getPassword(a.reader, "Enter password: ", a.out)
			if err != nil {
				return err
			}
			if password == "" {
				fmt.Fprintln(a.out, "ERROR: Password required!")
				continue
			}
			authResp, err := a.send(fmt.Sprintf("AUTH %s %s", userName, password))
			if err != nil {
				return err
			}
			if strings.Contains(authResp, "Login successful") {
				a.userName = userName
				fmt.Fprintf(a.out, "Welcome to the forum, %s!\n", userName)
				return nil
			}
			fmt.Fprintln(a.out, authResp)

		case "NEW_USER":
			password, err := getPassword(a.reader, "Enter password to register: ", a.out)
			if err != nil {
				return err
			}
			if password == "" {
				fmt.Fprintln(a.out, "ERROR: Password required!")
				continue
			}
			regResp, err := a.send(fmt.Sprintf("REGISTER %s %s", userName, password))
			if err != nil {
				return err
			}
			if strings.Contains(regResp, "Registration successful") {
				a.userName = userName
				fmt.Fprintf(a.out, "Welcome to the forum, %s!\n", userName)
				return nil
			}
			fmt.Fprintln(a.out, regResp)

		default:
			fmt.Fprintln(a.out, resp)
		}
	}
}

func (a *App) printHelp() {
	fmt.Fprintln(a.out, "\n====== Input with CMD below ======")
	fmt.Fprintln(a.out, "1. /XIT (no arguments) - Exit forum")
	fmt.Fprintln(a.out, "2. /CRT <threadtitle> - Create thread title")
	fmt.Fprintln(a.out, "3. /LST (no arguments) - List thread title")
	fmt.Fprintln(a.out, "4. /MSG <threadtitle> <msg> - Post message")
	fmt.Fprintln(a.out, "5. /RDT <threadtitle> - Read thread content")
	fmt.Fprintln(a.out, "6. /EDT <threadtitle> <msg_num> <msg> - Edit message")
	fmt.Fprintln(a.out, "7. /DLT <threadtitle> <msg_num> - Delete message")
	fmt.Fprintln(a.out, "8. /RMV <threadtitle> - Remove thread")
	fmt.Fprintln(a.out, "9. /UPD <threadtitle> <filename> - Upload file")
	fmt.Fprintln(a.out, "X. /DWN <threadtitle> <filename> - Download file")
	fmt.Fprintln(a.out, "===================================")
	fmt.Fprintln(a.out)
}

// dispatch parses one input line and runs the matching command handler.
func (a *App) dispatch(line string) {
	parts := strings.SplitN(line, " ", 2)
	cmd := parts[0]

	if cmd != strings.ToUpper(cmd) {
		fmt.Fprintln(a.out, "ERROR: Commands must be UPPERCASE")
		return
	}

	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "XIT", "LST":
		if args != "" {
			fmt.Fprintln(a.out, "ERROR: No arguments")
			return
		}
	case "CRT", "MSG", "RDT", "EDT", "DLT", "RMV", "UPD", "DWN":
	default:
		fmt.Fprintln(a.out, "ERROR: Invalid command.")
		return
	}

	switch cmd {
	case "XIT":
		a.exitForum()
	case "CRT":
		a.createThread(args)
	case "LST":
		a.listThreads()
	case "MSG":
		a.postMessage(args)
	case "RDT":
		a.readThread(args)
	case "EDT":
		a.editMessage(args)
	case "DLT":
		a.deleteMessage(args)
	case "RMV":
		a.removeThread(args)
	case "UPD":
		a.uploadFile(args)
	case "DWN":
		a.downloadFile(args)
	}
}

// validTitle reports whether title is a single non-empty word, printing
// the error when it is not.
func (a *App) validTitle(title string) bool {
	if title == "" || strings.Contains(title, " ") {
		fmt.Fprintln(a.out, "ERROR: Invalid title")
		return false
	}
	return true
}

func (a *App) sendAndPrint(command string) {
	resp, err := a.send(command)
	if err != nil {
		fmt.Fprintln(a.out, "ERROR:", err)
		return
	}
	fmt.Fprintln(a.out, resp)
}

func (a *App) exitForum() {
	resp, err := a.send("XIT " + a.userName)
	if err != nil {
		fmt.Fprintln(a.out, "ERROR:", err)
	} else {
		fmt.Fprintln(a.out, resp)
	}
	a.running = false
}

func (a *App) createThread(title string) {
	if !a.validTitle(title) {
		return
	}
	a.sendAndPrint(fmt.Sprintf("CRT %s %s", a.userName, title))
}

func (a *App) listThreads() {
	a.sendAndPrint("LST")
}

func (a *App) postMessage(args string) {
	msgParts := strings.SplitN(args, " ", 2)
	if len(msgParts) != 2 {
		fmt.Fprintln(a.out, "Input with: MSG <thread_title> <message>")
		return
	}
	title, message := msgParts[0], msgParts[1]
	if !a.validTitle(title) {
		return
	}
	a.sendAndPrint(fmt.Sprintf("MSG %s %s %s", a.userName, title, message))
}

func (a *App) readThread(title string) {
	if !a.validTitle(title) {
		return
	}
	resp, err := a.send("RDT " + title)
	if err != nil {
		fmt.Fprintln(a.out, "ERROR:", err)
		return
	}
	fmt.Fprintf(a.out, "\n---Thread: %s\n%s\n---\n", title, resp)
}

func (a *App) editMessage(args string) {
	edtParts := strings.SplitN(args, " ", 3)
	if len(edtParts) != 3 {
		fmt.Fprintln(a.out, "Input with: EDT <thread_title> <message_number> <new_message>")
		return
	}
	title, numStr, newMsg := edtParts[0], edtParts[1], edtParts[2]
	num, err := strconv.Atoi(numStr)
	if err != nil || num <= 0 {
		fmt.Fprintln(a.out, "ERROR: Invalid message number")
		return
	}
	if !a.validTitle(title) {
		return
	}
	if newMsg == "" {
		fmt.Fprintln(a.out, "ERROR: New message required")
		return
	}
	a.sendAndPrint(fmt.Sprintf("EDT %s %s %d %s", a.userName, title, num, newMsg))
}

func (a *App) deleteMessage(args string) {
	dltParts := strings.SplitN(args, " ", 2)
	if len(dltParts) != 2 {
		fmt.Fprintln(a.out, "Input with: DLT <thread_title> <message_number>")
		return
	}
	title, numStr := dltParts[0], dltParts[1]
	if !a.validTitle(title) {
		return
	}
	num, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil || num < 1 {
		fmt.Fprintln(a.out, "ERROR: Invalid message number")
		return
	}
	a.sendAndPrint(fmt.Sprintf("DLT %s %s %d", a.userName, title, num))
}

func (a *App) removeThread(args string) {
	title := strings.TrimSpace(args)
	if !a.validTitle(title) {
		return
	}
	a.sendAndPrint(fmt.Sprintf("RMV %s %s", a.userName, title))
}

func (a *App) uploadFile(args string) {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) != 2 {
		fmt.Fprintln(a.out, "Input with: UPD <thread> <file>")
		return
	}
	title, fileName := parts[0], parts[1]

	f, err := os.Open(fileName)
	if err != nil {
		fmt.Fprintf(a.out, "%s not found\n", fileName)
		return
	}
	defer f.Close()

	fmt.Fprintf(a.out, "Upload '%s' to '%s'\n", fileName, title)

	resp, err := a.send(fmt.Sprintf("UPD %s %s %s", a.userName, title, fileName))
	if err != nil {
		fmt.Fprintln(a.out, "ERROR:", err)
		return
	}
	if !strings.HasPrefix(resp, "Upload ready") {
		fmt.Fprintln(a.out, "Upload rejected:"+resp)
		return
	}

	confirm, err := a.client.Upload(a.userName, title, fileName, f)
	if err != nil {
		fmt.Fprintln(a.out, "Upload failed: "+err.Error())
		return
	}
	fmt.Fprintf(a.out, "Sent '%s'\n", fileName)
	fmt.Fprintln(a.out, "Server: "+confirm)
}

func (a *App) downloadFile(args string) {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) != 2 {
		fmt.Fprintln(a.out, "Input with: DWN <thread> <file>")
		return
	}
	title, fileName := parts[0], parts[1]

	if _, err := os.Stat(fileName); err == nil {
		fmt.Fprintf(a.out, "Local file %s already exists\n", fileName)
		return
	}

	resp, err := a.send(fmt.Sprintf("DWN %s %s %s", a.userName, title, fileName))
	if err != nil {
		fmt.Fprintln(a.out, "ERROR:", err)
		return
	}
	if !strings.HasPrefix(resp, "Download ready") {
		fmt.Fprintln(a.out, "Rejected: "+resp)
		return
	}

	f, err := os.Create(fileName)
	if err != nil {
		fmt.Fprintln(a.out, "Download failed: "+err.Error())
		return
	}

	if err := a.client.Download(title, fileName, f); err != nil {
		f.Close()
		os.Remove(fileName)
		fmt.Fprintln(a.out, "Download failed: "+err.Error())
		return
	}
	if err := f.Close(); err != nil {
		fmt.Fprintln(a.out, "Download failed: "+err.Error())
		return
	}
	fmt.Fprintf(a.out, "Received '%s'\n", fileName)
}
