package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/danmuck/scipnet/internal/client"
	"github.com/danmuck/scipnet/internal/config"
	"github.com/danmuck/scipnet/internal/logging"
	logs "github.com/danmuck/smplog"
	"golang.org/x/term"
)

const banner = `SCiPnet TERMINAL v4.1
SECURE. CONTAIN. PROTECT.
Unauthorized access is grounds for immediate amnesticization.`

func main() {
	var (
		configPath string
		addr       string
	)
	flag.StringVar(&configPath, "config", "", "path to terminal config TOML")
	flag.StringVar(&addr, "addr", "", "daemon address override")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := config.DefaultClientConfig()
	if configPath != "" {
		loaded, err := config.LoadClientConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scipnet: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.ServerAddr = addr
	}

	cli, err := client.Dial(context.Background(), client.Config{
		Address:        cfg.ServerAddr,
		ConnectTimeout: cfg.ConnectTimeout.Duration,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "scipnet: %v\n", err)
		os.Exit(1)
	}
	defer cli.Close()

	fmt.Println(banner)
	stdin := bufio.NewScanner(os.Stdin)

	user, err := login(cli, stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scipnet: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nWELCOME, %v (%v)\n", user["name"], user["title"])
	fmt.Println(`Commands: ACCESS <SCP|USER|SITE|MTF> <ID>, PING, EXIT`)

	if err := commandLoop(cli, stdin); err != nil {
		fmt.Fprintf(os.Stderr, "scipnet: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("CONNECTION TERMINATED")
}

// login prompts for credentials until the daemon accepts them.
func login(cli *client.Client, stdin *bufio.Scanner) (map[string]any, error) {
	for {
		fmt.Print("PERSONNEL ID: ")
		if !stdin.Scan() {
			return nil, errors.New("input closed")
		}
		userID, err := strconv.ParseInt(strings.TrimSpace(stdin.Text()), 10, 64)
		if err != nil {
			fmt.Println("personnel id must be a number")
			continue
		}

		password, err := readPassword("PASSWORD: ")
		if err != nil {
			return nil, err
		}

		user, field, err := cli.Login(userID, password)
		if errors.Is(err, client.ErrAuthRejected) {
			fmt.Printf("ACCESS DENIED: invalid %s\n", field)
			continue
		}
		if err != nil {
			return nil, err
		}
		return user, nil
	}
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// Piped input, e.g. in scripted use.
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func commandLoop(cli *client.Client, stdin *bufio.Scanner) error {
	for {
		fmt.Print("scipnet> ")
		if !stdin.Scan() {
			return nil
		}
		fields := strings.Fields(stdin.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToUpper(fields[0]) {
		case "EXIT", "LOGOUT", "QUIT":
			return nil
		case "PING":
			if err := cli.Ping(); err != nil {
				return err
			}
			fmt.Println("LINK ACTIVE")
		case "ACCESS":
			if len(fields) != 3 {
				fmt.Println("usage: ACCESS <SCP|USER|SITE|MTF> <ID>")
				continue
			}
			fID, err := strconv.ParseInt(fields[2], 10, 64)
			if err != nil || fID < 0 {
				fmt.Println("file id must be a non-negative number")
				continue
			}
			res, err := cli.Access(fields[1], fID)
			if err != nil {
				return err
			}
			render(fields[1], fID, res)
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func render(fType string, fID int64, res client.AccessResult) {
	label := fmt.Sprintf("%s-%d", strings.ToUpper(fType), fID)
	switch res.Verdict {
	case "granted":
		fmt.Printf("=== FILE %s ===\n", label)
		keys := make([]string, 0, len(res.File))
		for k := range res.File {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-18s %v\n", k+":", res.File[k])
		}
	case "redacted":
		fmt.Printf("=== FILE %s ===\n", label)
		fmt.Println("  [REDACTED]")
		fmt.Printf("  your clearance:     %s\n", res.UserClear)
		fmt.Printf("  required clearance: %s\n", res.NeededClear)
	case "expunged":
		fmt.Printf("=== FILE %s ===\n", label)
		fmt.Println("  [DATA EXPUNGED]")
	default:
		logs.Warnf("scipnet.render unknown verdict=%q", res.Verdict)
	}
}
