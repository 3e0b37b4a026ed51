// Package main is the ieuler CLI client: it crawls the puzzle catalog,
// authors per-puzzle solution files, executes and submits them, and
// exchanges progress with the companion server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/liamcryan/ieuler/internal/catalog"
	"github.com/liamcryan/ieuler/internal/config"
	"github.com/liamcryan/ieuler/internal/logger"
	"github.com/liamcryan/ieuler/internal/models"
	"github.com/liamcryan/ieuler/internal/runner"
	"github.com/liamcryan/ieuler/internal/site"
	"github.com/liamcryan/ieuler/internal/store"
	"github.com/liamcryan/ieuler/internal/syncer"
	"github.com/liamcryan/ieuler/internal/templates"
)

var (
	version   string
	buildDate string
)

// session wires the collaborators a command needs.
type session struct {
	cfg     config.Client
	store   *store.Store
	catalog *catalog.Catalog
	site    *site.Client
	syncer  *syncer.Client
	runner  *runner.Runner
	log     *zap.Logger
}

func newSession() (*session, error) {
	cfg := config.LoadClient()

	zl := logger.New()
	if err := zl.Init("Warn"); err != nil {
		return nil, err
	}

	st := store.New(cfg.DataDir)
	prompter := site.NewTermPrompter(cfg.Viewer)
	client, err := site.New(cfg, st, prompter, zl.Log)
	if err != nil {
		return nil, err
	}

	cat := catalog.New(st)
	if err := cat.Load(); err != nil {
		return nil, err
	}

	return &session{
		cfg:     cfg,
		store:   st,
		catalog: cat,
		site:    client,
		syncer:  syncer.New(cfg.ServerURL, st),
		runner:  runner.New(cfg.RunTimeout),
		log:     zl.Log,
	}, nil
}

// requireFetch guards commands that need a populated catalog.
func (s *session) requireFetch() bool {
	if s.catalog.Len() == 0 {
		fmt.Println("Please fetch problems first.")
		return false
	}
	return true
}

// fetch crawls every listing page into the catalog, then merges in the
// companion server's records when it is reachable.
func (s *session) fetch(ctx context.Context) error {
	fmt.Println("Fetching problems from Project Euler.")
	records, err := s.site.CrawlAll(ctx)
	if err != nil {
		return err
	}
	if err := s.catalog.MergeUpdate(records); err != nil {
		return err
	}
	fmt.Printf("Fetched %d problems.\n", s.catalog.Len())

	if err := s.syncer.Ping(ctx); err != nil {
		fmt.Println("Companion server unreachable, sync skipped.")
		return nil
	}
	pulled, err := s.syncer.Pull(ctx)
	if err != nil {
		if errors.Is(err, syncer.ErrUnauthorized) || errors.Is(err, syncer.ErrPeerUnavailable) {
			fmt.Printf("Sync skipped: %v\n", err)
			return nil
		}
		return err
	}
	merge := make([]models.PuzzleRecord, 0, len(pulled))
	for _, r := range pulled {
		merge = append(merge, r.Record())
	}
	return s.catalog.MergeUpdate(merge)
}

// send pushes the filtered progress projection to the companion server.
func (s *session) send(ctx context.Context) error {
	if err := s.site.EnsureLoggedIn(ctx); err != nil {
		return err
	}
	records := s.catalog.SyncRecords()
	if len(records) == 0 {
		fmt.Println("Nothing to send.")
		return nil
	}
	if err := s.syncer.Ping(ctx); err != nil {
		fmt.Printf("Unable to send data to server.\n%v\n", err)
		return nil
	}
	resp, err := s.syncer.Push(ctx, records)
	if err != nil {
		if errors.Is(err, syncer.ErrPeerUnavailable) {
			fmt.Printf("Unable to send data to server.\n%v\n", err)
			return nil
		}
		return err
	}
	fmt.Println(strings.TrimSpace(string(resp)))
	return nil
}

// ls prints the listing fields of every known puzzle.
func (s *session) ls() error {
	for _, r := range s.catalog.Snapshot() {
		out, err := json.MarshalIndent(struct {
			ID         int    `json:"ID"`
			Title      string `json:"Description / Title,omitempty"`
			SolvedBy   string `json:"Solved By,omitempty"`
			ProblemURL string `json:"problem_url,omitempty"`
			PageURL    string `json:"page_url,omitempty"`
		}{r.ID, r.Title, r.SolvedBy, r.ProblemURL, r.PageURL}, "", "    ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}

// view prints everything known about one puzzle.
func (s *session) view(id int) error {
	record, err := s.catalog.Get(id)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// solve fetches the puzzle details and writes a solution file from the
// language template, honoring any code already in the catalog.
func (s *session) solve(ctx context.Context, id int, language string, edit bool) error {
	if language == "" {
		stored, err := s.store.Language()
		if err != nil {
			return err
		}
		language = stored
	}
	if language == "" {
		language = "python"
		fmt.Printf("Choosing %s by default. Supported language templates: %v\n",
			language, templates.Supported())
	}
	tmpl, ok := templates.Get(language)
	if !ok {
		fmt.Printf("No template for %q. Supported language templates: %v\n",
			language, templates.Supported())
		return nil
	}
	if err := s.store.SaveLanguage(language); err != nil {
		return err
	}

	record, err := s.site.ProblemDetails(ctx, id)
	if err != nil {
		return err
	}
	if err := s.catalog.MergeUpdate([]models.PuzzleRecord{record}); err != nil {
		return err
	}
	record, err = s.catalog.Get(id)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("%d%s", id, tmpl.Extension)
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		content := ""
		if entry, ok := record.Code[language]; ok && entry.FileContent != "" {
			content = entry.FileContent
		} else {
			header, err := json.MarshalIndent(record, "", "    ")
			if err != nil {
				return err
			}
			content = tmpl.Render(string(header))
		}
		if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
			return err
		}
	}

	if edit {
		if editor := os.Getenv("EDITOR"); editor != "" {
			cmd := exec.Command(editor, filename)
			cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
			return cmd.Run()
		}
	}
	fmt.Printf("Solution file: %s\n", filename)
	return nil
}

// submit executes the solution file and posts the produced answer,
// recording the outcome in the catalog.
func (s *session) submit(ctx context.Context, id int, dry bool) error {
	record, err := s.catalog.Get(id)
	if err != nil {
		return err
	}

	language, filename := solutionFile(record, id)
	if language == "" {
		stored, err := s.store.Language()
		if err != nil {
			return err
		}
		if stored == "" {
			stored = "python"
		}
		tmpl, ok := templates.Get(stored)
		if !ok {
			return fmt.Errorf("no template registered for language %q", stored)
		}
		language, filename = stored, fmt.Sprintf("%d%s", id, tmpl.Extension)
	}

	answer, err := s.runner.Run(ctx, language, filename)
	if err != nil {
		fmt.Println("Oops, there was an error running the file:")
		return err
	}
	if dry {
		fmt.Printf("Result of executing %s: %s\n", filename, answer)
		return nil
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	result, err := s.site.Submit(ctx, id, answer, "")
	if err != nil {
		return err
	}

	update := models.PuzzleRecord{
		ID: id,
		Code: map[string]models.CodeEntry{
			language: {Filename: filename, FileContent: string(content), Submission: answer},
		},
	}
	solved := result.Solved
	update.Solved = &solved
	if result.Solved {
		update.CorrectAnswer = result.CorrectAnswer
		update.CompletedOn = result.CompletedOn
	}

	switch {
	case result.Solved && answer == result.CorrectAnswer:
		fmt.Println("Yay! You did it :)")
		fmt.Println(result.CompletedOn)
	case result.Solved:
		fmt.Printf("Sorry, %s is not the answer :(\n", answer)
		fmt.Println("But you've already solved this problem...")
		fmt.Println(result.CompletedOn)
	default:
		fmt.Printf("Sorry, %s is not the answer :(\n", answer)
	}

	return s.catalog.MergeUpdate([]models.PuzzleRecord{update})
}

// solutionFile finds the recorded solution file for a puzzle, if any.
func solutionFile(record models.PuzzleRecord, id int) (language, filename string) {
	for lang, entry := range record.Code {
		if entry.Filename != "" {
			return lang, entry.Filename
		}
	}
	return "", ""
}

func (s *session) setLanguage(language string) error {
	if _, ok := templates.Get(language); !ok {
		fmt.Printf("No template for %q. Supported language templates: %v\n",
			language, templates.Supported())
		return nil
	}
	if err := s.store.SaveLanguage(language); err != nil {
		return err
	}
	fmt.Printf("Default language set to %s.\n", language)
	return nil
}

func main() {
	var (
		cmd      string
		id       int
		language string
		dry      bool
		noEdit   bool
		showVer  bool
	)

	flag.StringVar(&cmd, "cmd", "", "command: fetch | ls | view | solve | submit | send | language | login | logout")
	flag.IntVar(&id, "id", 0, "puzzle number")
	flag.StringVar(&language, "language", "", "language template name")
	flag.BoolVar(&dry, "dry", false, "execute the solution file without submitting")
	flag.BoolVar(&noEdit, "no-edit", false, "do not open the solution file in $EDITOR")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("ieuler\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	s, err := newSession()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = s.log.Sync() }()

	ctx := context.Background()

	needsID := map[string]bool{"view": true, "solve": true, "submit": true}
	if needsID[cmd] && id < 1 {
		log.Fatalf("please provide -id=<puzzle number> for %s", cmd)
	}

	switch cmd {
	case "fetch":
		err = s.fetch(ctx)
	case "ls":
		if s.requireFetch() {
			err = s.ls()
		}
	case "view":
		if s.requireFetch() {
			err = s.view(id)
		}
	case "solve":
		if s.requireFetch() {
			err = s.solve(ctx, id, language, !noEdit)
		}
	case "submit":
		if s.requireFetch() {
			err = s.submit(ctx, id, dry)
		}
	case "send":
		if s.requireFetch() {
			err = s.send(ctx)
		}
	case "language":
		if language == "" {
			log.Fatal("please provide -language=<name>")
		}
		err = s.setLanguage(language)
	case "login":
		err = s.site.EnsureLoggedIn(ctx)
	case "logout":
		err = s.site.Logout(ctx)
	default:
		log.Fatalf("unknown command: %q (try -cmd=fetch)", cmd)
	}
	if err != nil {
		log.Fatal(err)
	}
}
