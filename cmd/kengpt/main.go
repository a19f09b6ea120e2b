package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/kengpt/kengpt/pkg/backend"
	"github.com/kengpt/kengpt/pkg/chat"
	"github.com/kengpt/kengpt/pkg/config"
	"github.com/kengpt/kengpt/pkg/logger"
	"github.com/kengpt/kengpt/pkg/notify"
	"github.com/kengpt/kengpt/pkg/session"
	"github.com/kengpt/kengpt/pkg/store"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const appName = "kengpt"

// formatVersion returns the version string with optional git commit
func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func printVersion() {
	fmt.Printf("%s %s\n", appName, formatVersion())
	if buildTime != "" {
		fmt.Printf("  Build: %s\n", buildTime)
	}
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	fmt.Printf("  Go: %s\n", goVer)
}

func main() {
	if err := executeCLI(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kengpt")
}

func getConfigPath() string {
	return filepath.Join(getConfigDir(), "config.json")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

func onboard() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
		fmt.Print("Overwrite? (y/n): ")
		reader := bufio.NewReader(os.Stdin)
		response, readErr := reader.ReadString('\n')
		if readErr != nil {
			fmt.Println("Aborted.")
			return nil
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(configPath, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Config written to %s\n", configPath)
	fmt.Println("Set server.base_url (or KENGPT_SERVER_BASE_URL) to your chat backend and run:")
	fmt.Printf("  %s chat\n", appName)
	return nil
}

// runtimeState bundles everything a command needs to talk to the backend
// and own conversation state.
type runtimeState struct {
	cfg     *config.Config
	client  *backend.Client
	store   *store.Store
	bus     *notify.Bus
	session *session.Session
}

func (r *runtimeState) close() {
	if r.bus != nil {
		r.bus.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
}

func buildRuntime() (*runtimeState, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	client := backend.NewClient(cfg.Server.BaseURL, cfg.Server.Proxy, cfg.ServerTimeout())

	st, err := store.Open(cfg.StoragePath())
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	bus := notify.NewBus()
	sess := session.New(st, client, bus, session.Options{
		HistoryLimit: cfg.Chat.HistoryLimit,
	})
	sess.Hydrate()

	return &runtimeState{
		cfg:     cfg,
		client:  client,
		store:   st,
		bus:     bus,
		session: sess,
	}, nil
}

func chatCmd(message string, speakAloud bool) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	speakAloud = speakAloud || rt.cfg.Speech.Enabled

	if message != "" {
		return oneShot(rt, message, speakAloud)
	}

	fmt.Printf("%s Interactive mode (Ctrl+C to exit, /help for commands)\n\n", appName)
	interactiveChat(rt, speakAloud)
	return nil
}

func oneShot(rt *runtimeState, message string, speakAloud bool) error {
	ctx := context.Background()
	response, err := rt.session.SendRequest(ctx, message)
	if err != nil {
		rt.session.SetStatus(chat.StatusStandby)
		return err
	}
	renderResponse(os.Stdout, response, false)
	if speakAloud {
		speakResponse(rt, response)
	}
	drainNotifications(rt.bus)
	return nil
}

func interactiveChat(rt *runtimeState, speakAloud bool) {
	ctx := context.Background()

	if rt.cfg.StatusPoll.Enabled {
		poller, err := session.NewStatusPoller(rt.session, rt.cfg.StatusPoll.Schedule)
		if err != nil {
			fmt.Printf("Status poll disabled: %v\n", err)
		} else {
			pollCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			go poller.Run(pollCtx)
		}
	}

	prompt := fmt.Sprintf("%s You: ", appName)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".kengpt_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveChat(rt, speakAloud)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return
		}
		if strings.HasPrefix(input, "/") {
			if handleSlashCommand(rt, input, &speakAloud) {
				return
			}
			drainNotifications(rt.bus)
			continue
		}

		sendAndRender(rt, ctx, input, speakAloud)
	}
}

func simpleInteractiveChat(rt *runtimeState, speakAloud bool) {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s You: ", appName)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return
		}
		if strings.HasPrefix(input, "/") {
			if handleSlashCommand(rt, input, &speakAloud) {
				return
			}
			drainNotifications(rt.bus)
			continue
		}

		sendAndRender(rt, ctx, input, speakAloud)
	}
}

func sendAndRender(rt *runtimeState, ctx context.Context, input string, speakAloud bool) {
	response, err := rt.session.SendRequest(ctx, input)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		// The draft stays with the user; reset so input reopens.
		if rt.session.Status() == chat.StatusError {
			rt.session.SetStatus(chat.StatusStandby)
		}
		drainNotifications(rt.bus)
		return
	}

	botname := rt.session.ActiveProfile().Botname
	fmt.Printf("\n%s:\n", botname)
	renderResponse(os.Stdout, response, false)
	fmt.Println()

	if speakAloud {
		speakResponse(rt, response)
	}
	drainNotifications(rt.bus)
}

// speakResponse fetches synthesized audio for the reply and saves it.
// Speech is auxiliary: any failure is logged and contained.
func speakResponse(rt *runtimeState, response chat.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	audio, err := rt.client.Speak(ctx, response.Text())
	if err != nil {
		logger.WarnCF("speech", "Speech synthesis failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	dir := rt.cfg.SpeechOutputDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.WarnCF("speech", "Cannot create speech output dir", map[string]interface{}{
			"dir": dir, "error": err.Error(),
		})
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("reply-%d.mp3", response.Timestamp))
	if err := os.WriteFile(path, audio, 0644); err != nil {
		logger.WarnCF("speech", "Cannot write speech file", map[string]interface{}{
			"path": path, "error": err.Error(),
		})
		return
	}
	fmt.Printf("(speech saved to %s)\n", path)
}

// handleSlashCommand executes an in-loop command. It returns true when
// the loop should exit.
func handleSlashCommand(rt *runtimeState, input string, speakAloud *bool) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/help":
		fmt.Println("  /profiles            list profiles")
		fmt.Println("  /profile <botname>   switch the active profile")
		fmt.Println("  /thoughts            show the last reply's thoughts")
		fmt.Println("  /clear               clear conversation memory")
		fmt.Println("  /rewind <timestamp>  delete messages at/after the timestamp")
		fmt.Println("  /speak on|off        toggle speak-aloud")
		fmt.Println("  /status              show session status")
		fmt.Println("  exit                 leave the chat")
	case "/profiles":
		printProfiles(rt.session)
	case "/profile":
		if len(fields) < 2 {
			fmt.Println("Usage: /profile <botname>")
			break
		}
		name := strings.Join(fields[1:], " ")
		switchProfile(rt.session, name)
	case "/thoughts":
		printLastThoughts(rt.session)
	case "/clear":
		rt.session.ClearMemory()
		fmt.Println("Memory cleared.")
	case "/rewind":
		if len(fields) != 2 {
			fmt.Println("Usage: /rewind <timestamp-ms>")
			break
		}
		cutoff, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Printf("Invalid timestamp: %v\n", err)
			break
		}
		before := len(rt.session.Memory())
		rt.session.DeleteMemory(cutoff)
		fmt.Printf("Removed %d message(s).\n", before-len(rt.session.Memory()))
	case "/speak":
		if len(fields) == 2 && fields[1] == "on" {
			*speakAloud = true
			fmt.Println("Speak-aloud enabled.")
		} else if len(fields) == 2 && fields[1] == "off" {
			*speakAloud = false
			fmt.Println("Speak-aloud disabled.")
		} else {
			fmt.Println("Usage: /speak on|off")
		}
	case "/status":
		fmt.Printf("Status: %s, messages: %d, profile: %s\n",
			rt.session.Status(), len(rt.session.Memory()), rt.session.ActiveProfile().Botname)
	default:
		fmt.Printf("Unknown command %s (try /help)\n", fields[0])
	}
	return false
}

func printProfiles(sess *session.Session) {
	active := sess.ActiveProfile().Botname
	for name, p := range sess.Profiles() {
		marker := " "
		if name == active {
			marker = "*"
		}
		model := p.Model
		if model == "" {
			model = "default"
		}
		fmt.Printf(" %s %s (model: %s)\n", marker, name, model)
	}
}

func switchProfile(sess *session.Session, name string) {
	profile, ok := sess.Profiles()[name]
	if !ok {
		fmt.Printf("No profile named %q\n", name)
		return
	}
	if err := sess.SetActiveProfile(profile); err != nil {
		fmt.Printf("Cannot activate profile: %v\n", err)
		return
	}
	fmt.Printf("Active profile: %s\n", name)
}

func printLastThoughts(sess *session.Session) {
	memory := sess.Memory()
	for i := len(memory) - 1; i >= 0; i-- {
		if memory[i].Role != chat.RoleAssistant {
			continue
		}
		if !memory[i].HasThoughts() {
			fmt.Println("No thoughts on the last reply.")
			return
		}
		fmt.Println("Thoughts:")
		for _, thought := range memory[i].Thoughts {
			fmt.Printf("  %s\n", thought)
		}
		return
	}
	fmt.Println("No assistant replies yet.")
}

func drainNotifications(bus *notify.Bus) {
	for {
		n, ok := bus.TryConsume()
		if !ok {
			return
		}
		fmt.Printf("[%s] %s\n", n.Severity, n.Message)
	}
}

func modelsCmd() error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	models, err := rt.client.ListModels(ctx)
	if err != nil {
		// Model listing is advisory; degrade to an empty list.
		rt.bus.AddNotification("Error fetching available models", notify.SeverityError)
		drainNotifications(rt.bus)
		logger.WarnCF("models", "Model listing failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	if len(models) == 0 {
		fmt.Println("No models reported by the backend.")
		return nil
	}
	active := rt.session.ActiveProfile().Model
	for _, m := range models {
		marker := " "
		if m == active {
			marker = "*"
		}
		fmt.Printf(" %s %s\n", marker, m)
	}
	return nil
}

func statusCmd() error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	fmt.Printf("%s status\n", appName)
	fmt.Printf("  Config:   %s\n", getConfigPath())
	fmt.Printf("  Backend:  %s\n", rt.cfg.Server.BaseURL)
	fmt.Printf("  Storage:  %s\n", rt.cfg.StoragePath())
	fmt.Printf("  Profile:  %s\n", rt.session.ActiveProfile().Botname)
	fmt.Printf("  Messages: %d\n", len(rt.session.Memory()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	system, err := rt.client.SystemStatus(ctx)
	if err != nil {
		fmt.Printf("  Remote:   offline (%v)\n", err)
		return nil
	}
	fmt.Printf("  Remote:   %s (model: %s)\n", system.Status, system.Model)
	return nil
}

func memoryClearCmd() error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	rt.session.ClearMemory()
	drainNotifications(rt.bus)
	fmt.Println("Memory cleared.")
	return nil
}

func memoryRewindCmd(cutoff int64) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	before := len(rt.session.Memory())
	rt.session.DeleteMemory(cutoff)
	drainNotifications(rt.bus)
	fmt.Printf("Removed %d message(s).\n", before-len(rt.session.Memory()))
	return nil
}

func profilesListCmd() error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	printProfiles(rt.session)
	return nil
}

func profilesUseCmd(name string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	profile, ok := rt.session.Profiles()[name]
	if !ok {
		return fmt.Errorf("no profile named %q", name)
	}
	if err := rt.session.SetActiveProfile(profile); err != nil {
		return err
	}
	fmt.Printf("Active profile: %s\n", name)
	return nil
}

func profilesSetCmd(profile chat.Profile) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.session.SetActiveProfile(profile); err != nil {
		drainNotifications(rt.bus)
		return err
	}
	fmt.Printf("Saved and activated profile %q\n", profile.Botname)
	return nil
}

func exportCmd(outputPath string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	memory := rt.session.Memory()
	if len(memory) == 0 {
		return fmt.Errorf("nothing to export: memory is empty")
	}

	html := exportTranscriptHTML(memory, rt.session.ActiveProfile())
	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	fmt.Printf("Transcript with %d message(s) written to %s\n", len(memory), outputPath)
	return nil
}
