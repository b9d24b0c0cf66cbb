package main

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cerebro"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	sessionCookie     = "cerebro-session"
	maxUploadMemory   = 32 << 20 // 32 MB
	searchPassages    = 5
	generationTimeout = 5 * time.Minute
	defaultCardCount  = 10
	defaultMCQCount   = 5
	maxCardCount      = 50
	maxMCQCount       = 30
)

type Server struct {
	registry  *cerebro.SessionRegistry
	store     *sessions.CookieStore
	templates map[string]*template.Template
	generator *cerebro.Generator
	index     *cerebro.VectorIndex
	cfg       cerebro.Config
}

func main() {
	cerebro.SetVerbose(os.Getenv("VERBOSE") != "")
	cfg := cerebro.LoadConfig()

	if cfg.ChatAPIKey == "" {
		log.Fatal("CHAT_API_KEY environment variable is required")
	}

	chunkStore, err := cerebro.OpenChunkStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open chunk store: %v", err)
	}
	defer chunkStore.Close()

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = uuid.NewString()
		log.Printf("SESSION_SECRET not set, using a random key (sessions reset on restart)")
	}

	funcMap := template.FuncMap{
		"add":  func(a, b int) int { return a + b },
		"div":  func(a, b int) float64 { return float64(a) / float64(b) },
		"mul":  func(a, b float64) float64 { return a * b },
		"join": strings.Join,
	}

	templates := make(map[string]*template.Template)
	templateFiles := []struct {
		name string
		file string
	}{
		{"home", "templates/home.html"},
		{"chat", "templates/chat.html"},
		{"flashcards", "templates/flashcards.html"},
		{"mcq", "templates/mcq.html"},
	}
	for _, tmpl := range templateFiles {
		templates[tmpl.name] = template.Must(template.New(tmpl.name).Funcs(funcMap).ParseFiles("templates/base.html", tmpl.file))
	}

	server := &Server{
		registry:  cerebro.NewSessionRegistry(),
		store:     sessions.NewCookieStore([]byte(secret)),
		templates: templates,
		generator: cerebro.NewGenerator(cfg.ChatAPIKey, cfg.ChatBaseURL, cfg.ChatModel),
		index:     cerebro.NewVectorIndex(cfg.EmbeddingAPIKey, cfg.EmbeddingBaseURL, cfg.EmbeddingModel, chunkStore),
		cfg:       cfg,
	}

	http.HandleFunc("/", server.handleHome)
	http.HandleFunc("/process", server.handleProcess)
	http.HandleFunc("/clear", server.handleClear)
	http.HandleFunc("/chat", server.handleChat)
	http.HandleFunc("/flashcards", server.handleFlashcards)
	http.HandleFunc("/flashcards/generate", server.handleGenerateFlashcards)
	http.HandleFunc("/flashcards/action", server.handleFlashcardAction)
	http.HandleFunc("/mcq", server.handleMCQ)
	http.HandleFunc("/mcq/generate", server.handleGenerateMCQs)
	http.HandleFunc("/mcq/answer", server.handleMCQAnswer)
	http.HandleFunc("/mcq/action", server.handleMCQAction)

	log.Printf("Starting server on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, nil))
}

// session resolves the caller's review session, minting a session ID
// cookie on first contact. All review state lives server-side keyed by
// that ID; the cookie carries nothing else.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *cerebro.Session {
	cookie, _ := s.store.Get(r, sessionCookie)
	id, ok := cookie.Values["id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		cookie.Values["id"] = id
		if err := cookie.Save(r, w); err != nil {
			log.Printf("Session save error: %v", err)
		}
	}
	return s.registry.Get(id)
}

func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	if err := s.templates[name].ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Template error in %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	sess := s.session(w, r)
	sess.Lock()
	defer sess.Unlock()
	s.render(w, "home", map[string]any{
		"Ready":      sess.Ready(),
		"ChunkCount": sess.ChunkCount,
		"TextLen":    len(sess.ProcessedText),
		"Notice":     r.URL.Query().Get("notice"),
		"Error":      r.URL.Query().Get("error"),
	})
}

// handleProcess ingests uploaded files and/or a Drive folder, combines
// the extracted text and replaces the session's indexed material.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(w, r)
	sess.Lock()
	defer sess.Unlock()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.redirectHome(w, r, "", "Failed to parse upload: "+err.Error())
		return
	}

	var docs []cerebro.ExtractedDocument
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["documents"] {
			doc, err := extractUpload(header.Filename, header)
			if err != nil {
				log.Printf("Could not process %s: %v", header.Filename, err)
				continue
			}
			docs = append(docs, doc)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()

	if folderID := strings.TrimSpace(r.FormValue("folder_id")); folderID != "" {
		importer, err := cerebro.NewDriveImporter(ctx, s.cfg.ServiceAccountFile)
		if err != nil {
			s.redirectHome(w, r, "", "Google Drive import unavailable: "+err.Error())
			return
		}
		text, err := importer.ImportFolder(ctx, folderID)
		if err != nil {
			s.redirectHome(w, r, "", "Google Drive import failed: "+err.Error())
			return
		}
		docs = append(docs, cerebro.ExtractedDocument{Name: "Google Drive folder " + folderID, Text: text})
	}

	combined := cerebro.CombineDocuments(docs)
	if combined == "" {
		s.redirectHome(w, r, "", "No text content found to process")
		return
	}

	count, err := s.index.IndexText(ctx, sess.ID, combined)
	if err != nil {
		s.redirectHome(w, r, "", "Indexing failed: "+err.Error())
		return
	}

	// New material invalidates everything derived from the old material.
	sess.Clear()
	sess.ProcessedText = combined
	sess.ChunkCount = count

	s.redirectHome(w, r, fmt.Sprintf("Processed %d document(s) into %d chunks", len(docs), count), "")
}

func extractUpload(name string, header *multipart.FileHeader) (cerebro.ExtractedDocument, error) {
	src, err := header.Open()
	if err != nil {
		return cerebro.ExtractedDocument{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(name))
	if err != nil {
		return cerebro.ExtractedDocument{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return cerebro.ExtractedDocument{}, fmt.Errorf("failed to save upload: %w", err)
	}
	tmp.Close()

	text, err := cerebro.ExtractText(tmp.Name())
	if err != nil {
		return cerebro.ExtractedDocument{}, err
	}
	return cerebro.ExtractedDocument{Name: name, Text: text}, nil
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(w, r)
	sess.Lock()
	defer sess.Unlock()
	if err := s.index.Clear(r.Context(), sess.ID); err != nil {
		log.Printf("Failed to clear index for session %s: %v", sess.ID, err)
	}
	sess.Clear()
	s.redirectHome(w, r, "Session data cleared", "")
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request, notice, errMsg string) {
	url := "/"
	switch {
	case errMsg != "":
		url += "?error=" + template.URLQueryEscaper(errMsg)
	case notice != "":
		url += "?notice=" + template.URLQueryEscaper(notice)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Lock()
	defer sess.Unlock()

	if r.Method == http.MethodPost {
		question := strings.TrimSpace(r.FormValue("question"))
		if question == "" {
			http.Redirect(w, r, "/chat", http.StatusSeeOther)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
		defer cancel()

		sess.Chat = append(sess.Chat, cerebro.ChatMessage{Role: "user", Content: question})

		passages, err := s.index.Search(ctx, sess.ID, question, searchPassages)
		if err != nil {
			sess.Chat = append(sess.Chat, cerebro.ChatMessage{Role: "assistant", Content: "Search failed: " + err.Error()})
			http.Redirect(w, r, "/chat", http.StatusSeeOther)
			return
		}

		answer, err := s.generator.AnswerQuestion(ctx, question, passages)
		if err != nil {
			sess.Chat = append(sess.Chat, cerebro.ChatMessage{Role: "assistant", Content: "Generation failed: " + err.Error()})
			http.Redirect(w, r, "/chat", http.StatusSeeOther)
			return
		}

		sess.Chat = append(sess.Chat, cerebro.ChatMessage{Role: "assistant", Content: answer, Chunks: passages})
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}

	s.render(w, "chat", map[string]any{
		"Ready":    sess.Ready(),
		"Messages": sess.Chat,
	})
}

func (s *Server) handleFlashcards(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Lock()
	defer sess.Unlock()
	s.renderFlashcards(w, sess, "", "")
}

func (s *Server) renderFlashcards(w http.ResponseWriter, sess *cerebro.Session, errMsg, raw string) {
	total := len(sess.Flashcards)
	sess.CardCursor.Clamp(total)

	data := map[string]any{
		"Ready":    sess.Ready(),
		"Total":    total,
		"Error":    errMsg,
		"Raw":      raw,
		"Revealed": sess.CardCursor.Revealed,
	}
	if total > 0 {
		idx := sess.CardCursor.Index
		data["Card"] = sess.Flashcards[idx]
		data["Index"] = idx
		data["Starred"] = sess.CardCursor.Starred[idx]

		var starred []map[string]any
		for _, i := range sess.CardCursor.StarredIn(total) {
			starred = append(starred, map[string]any{"Num": i + 1, "Card": sess.Flashcards[i]})
		}
		data["StarredCards"] = starred
	}
	s.render(w, "flashcards", data)
}

func (s *Server) handleGenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(w, r)
	sess.Lock()
	defer sess.Unlock()
	if !sess.Ready() {
		s.renderFlashcards(w, sess, "Process documents on the home page first", "")
		return
	}

	count := formInt(r, "count", defaultCardCount, 1, maxCardCount)
	req := cerebro.GenerationRequest{SourceText: sess.ProcessedText, Count: count}

	logger, err := cerebro.NewGenLogger(uuid.NewString(), "flashcards", count)
	if err != nil {
		log.Printf("Failed to create generation logger: %v", err)
	} else {
		defer logger.Close()
	}

	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()

	cards, raw, err := s.generator.GenerateFlashcards(ctx, req, logger)
	if err != nil {
		s.renderFlashcards(w, sess, "Flashcard generation failed: "+err.Error(), "")
		return
	}
	if len(cards) == 0 {
		s.renderFlashcards(w, sess, "Could not parse any flashcards from the response", raw)
		return
	}

	sess.ReplaceFlashcards(cards)
	http.Redirect(w, r, "/flashcards", http.StatusSeeOther)
}

func (s *Server) handleFlashcardAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(w, r)
	sess.Lock()
	defer sess.Unlock()
	total := len(sess.Flashcards)
	sess.CardCursor.Clamp(total)

	switch r.FormValue("action") {
	case "next":
		sess.CardCursor.Next(total)
	case "prev":
		sess.CardCursor.Prev()
	case "flip":
		sess.CardCursor.Revealed = !sess.CardCursor.Revealed
	case "star":
		sess.CardCursor.ToggleStar(sess.CardCursor.Index)
	}
	http.Redirect(w, r, "/flashcards", http.StatusSeeOther)
}

func (s *Server) handleMCQ(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Lock()
	defer sess.Unlock()
	s.renderMCQ(w, sess, "", "", sess.MCQDiags)
}

// renderMCQ shows the session's current batch. The diagnostics are passed
// explicitly so a failed regeneration can show its own diagnostic trail
// while the session keeps the diagnostics of the batch still on screen.
func (s *Server) renderMCQ(w http.ResponseWriter, sess *cerebro.Session, errMsg, raw string, diags cerebro.Diagnostics) {
	s.render(w, "mcq", mcqViewData(sess, errMsg, raw, diags))
}

func mcqViewData(sess *cerebro.Session, errMsg, raw string, diags cerebro.Diagnostics) map[string]any {
	total := len(sess.MCQs)
	sess.MCQCursor.Clamp(total)

	data := map[string]any{
		"Ready":      sess.Ready(),
		"Total":      total,
		"Error":      errMsg,
		"Raw":        raw,
		"Answered":   sess.MCQAnswered,
		"UserAnswer": sess.MCQUserAnswer,
		"Diags":      diags,
	}
	if total > 0 {
		idx := sess.MCQCursor.Index
		mcq := sess.MCQs[idx]
		data["MCQ"] = mcq
		data["Index"] = idx
		data["Starred"] = sess.MCQCursor.Starred[idx]
		data["Correct"] = sess.MCQAnswered && sess.MCQUserAnswer == mcq.Answer

		var starred []map[string]any
		for _, i := range sess.MCQCursor.StarredIn(total) {
			starred = append(starred, map[string]any{"Num": i + 1, "MCQ": sess.MCQs[i]})
		}
		data["StarredMCQs"] = starred
	}
	return data
}

func (s *Server) handleGenerateMCQs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(w, r)
	sess.Lock()
	defer sess.Unlock()
	if !sess.Ready() {
		s.renderMCQ(w, sess, "Process documents on the home page first", "", sess.MCQDiags)
		return
	}

	count := formInt(r, "count", defaultMCQCount, 1, maxMCQCount)
	req := cerebro.GenerationRequest{SourceText: sess.ProcessedText, Count: count}

	logger, err := cerebro.NewGenLogger(uuid.NewString(), "mcq", count)
	if err != nil {
		log.Printf("Failed to create generation logger: %v", err)
	} else {
		defer logger.Close()
	}

	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()

	records, diags, raw, err := s.generator.GenerateMCQs(ctx, req, nil, logger)
	if err != nil {
		// Extraction failures carry the exact candidate that failed to
		// decode; show it so the user can see what came back.
		var msg string
		if extErr, ok := err.(*cerebro.ExtractionError); ok {
			msg = "Could not extract a JSON list from the response: " + extErr.Err.Error()
			raw = extErr.Candidate
		} else {
			msg = "MCQ generation failed: " + err.Error()
			raw = ""
		}
		s.renderMCQ(w, sess, msg, raw, diags)
		return
	}
	if len(records) == 0 {
		s.renderMCQ(w, sess, "Generated output had no usable records", raw, diags)
		return
	}

	sess.ReplaceMCQs(records, diags)
	http.Redirect(w, r, "/mcq", http.StatusSeeOther)
}

func (s *Server) handleMCQAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(w, r)
	sess.Lock()
	defer sess.Unlock()
	if answer := r.FormValue("answer"); answer != "" {
		sess.SubmitAnswer(answer)
	}
	http.Redirect(w, r, "/mcq", http.StatusSeeOther)
}

func (s *Server) handleMCQAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(w, r)
	sess.Lock()
	defer sess.Unlock()
	total := len(sess.MCQs)
	sess.MCQCursor.Clamp(total)

	switch r.FormValue("action") {
	case "next":
		sess.MCQCursor.Next(total)
		sess.ResetAnswer()
	case "prev":
		sess.MCQCursor.Prev()
		sess.ResetAnswer()
	case "star":
		sess.MCQCursor.ToggleStar(sess.MCQCursor.Index)
	}
	http.Redirect(w, r, "/mcq", http.StatusSeeOther)
}

func formInt(r *http.Request, field string, fallback, min, max int) int {
	n, err := strconv.Atoi(r.FormValue(field))
	if err != nil || n < min || n > max {
		return fallback
	}
	return n
}
