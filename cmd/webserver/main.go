package main

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"questiongenerator"

	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
)

const maxUploadBytes = 32 << 20

type Server struct {
	db        *questiongenerator.DB
	store     *sessions.CookieStore
	monitor   *questiongenerator.QuestionMonitor
	apiKey    string
	uploadDir string
	templates map[string]*template.Template
}

// questionView flattens the concrete question kinds for templates.
type questionView struct {
	Num         int
	Kind        questiongenerator.QuestionType
	Prompt      string
	Options     []questiongenerator.Option
	Answer      string
	ModelAnswer string
}

func viewQuestions(questions []questiongenerator.Question) []questionView {
	views := make([]questionView, 0, len(questions))
	for i, q := range questions {
		v := questionView{Num: i + 1, Kind: q.Type(), Prompt: q.Text()}
		switch q := q.(type) {
		case *questiongenerator.MultipleChoice:
			v.Options = q.Options
			v.Answer = q.Answer
		case *questiongenerator.MultipleSelection:
			v.Options = q.Options
			v.Answer = strings.Join(q.Answers, ", ")
		case *questiongenerator.TrueFalse:
			v.Answer = q.Answer
		case *questiongenerator.ShortAnswer:
			v.ModelAnswer = q.ModelAnswer
		}
		views = append(views, v)
	}
	return views
}

func main() {
	godotenv.Load()
	questiongenerator.SetVerbose(os.Getenv("VERBOSE") != "")

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./questions.db"
	}
	db, err := questiongenerator.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	monitor, err := questiongenerator.NewQuestionMonitor("./logs")
	if err != nil {
		log.Fatalf("Failed to create monitor: %v", err)
	}

	uploadDir := "./uploads"
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	sessionKey := os.Getenv("SESSION_KEY")
	if sessionKey == "" {
		sessionKey = "question-generator-dev-key"
	}

	server := &Server{
		db:        db,
		store:     sessions.NewCookieStore([]byte(sessionKey)),
		monitor:   monitor,
		apiKey:    apiKey,
		uploadDir: uploadDir,
		templates: loadTemplates(),
	}

	http.HandleFunc("/", server.handleHome)
	http.HandleFunc("/generate", server.handleGenerate)
	http.HandleFunc("/set/", server.handleSet)
	http.HandleFunc("/metrics", server.handleMetrics)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}

	log.Printf("Starting server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}

func loadTemplates() map[string]*template.Template {
	templates := make(map[string]*template.Template)
	for name, body := range pageTemplates {
		templates[name] = template.Must(template.New("base").Parse(baseTemplate + body))
	}
	return templates
}

func (s *Server) render(w http.ResponseWriter, name string, data map[string]interface{}) {
	if err := s.templates[name].ExecuteTemplate(w, "base", data); err != nil {
		log.Printf("Template error in %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

// flash pops the session flash messages for display.
func (s *Server) flash(w http.ResponseWriter, r *http.Request) []interface{} {
	session, _ := s.store.Get(r, "question-session")
	messages := session.Flashes()
	if len(messages) > 0 {
		session.Save(r, w)
	}
	return messages
}

func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	session, _ := s.store.Get(r, "question-session")
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sets, err := s.db.ListSets(0)
	if err != nil {
		log.Printf("Failed to list question sets: %v", err)
		http.Error(w, "Failed to list question sets", http.StatusInternalServerError)
		return
	}

	s.render(w, "home", map[string]interface{}{
		"Sets":     sets,
		"Types":    questiongenerator.QuestionTypes,
		"Messages": s.flash(w, r),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		http.Error(w, "Document file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	docPath := filepath.Join(s.uploadDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename)))
	out, err := os.Create(docPath)
	if err != nil {
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	out.Close()

	numQuestions, err := strconv.Atoi(r.FormValue("num_questions"))
	if err != nil || numQuestions <= 0 {
		numQuestions = 10
	}
	req := questiongenerator.GenerationRequest{
		Type:         questiongenerator.QuestionType(r.FormValue("question_type")),
		NumQuestions: numQuestions,
		Topic:        r.FormValue("topic"),
		Difficulty:   r.FormValue("difficulty"),
		Language:     r.FormValue("language"),
	}

	// Generation takes minutes; run it off the request and let the set
	// show up on the home page when stored.
	go s.runGeneration(docPath, req)

	s.addFlash(w, r, fmt.Sprintf("Generating %d %s questions from %s. The set will appear below when ready.",
		req.NumQuestions, req.Type, header.Filename))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) runGeneration(docPath string, req questiongenerator.GenerationRequest) {
	defer os.Remove(docPath)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	generator := questiongenerator.NewGenerator(s.apiKey)
	generator.SetMonitor(s.monitor)

	result, err := generator.GenerateFromDocument(ctx, docPath, req)
	if err != nil {
		log.Printf("Generation failed for %s: %v", docPath, err)
		return
	}

	setID, err := s.db.SaveResult(result)
	if err != nil {
		log.Printf("Failed to store question set: %v", err)
		return
	}
	log.Printf("Stored question set %s (%d questions)", setID, len(result.Questions))
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	setID := strings.TrimPrefix(r.URL.Path, "/set/")
	if setID == "" || strings.Contains(setID, "/") {
		http.NotFound(w, r)
		return
	}

	set, err := s.db.GetSet(setID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	questions, err := s.db.GetQuestions(setID)
	if err != nil {
		log.Printf("Failed to load questions for %s: %v", setID, err)
		http.Error(w, "Failed to load questions", http.StatusInternalServerError)
		return
	}

	s.render(w, "set", map[string]interface{}{
		"Set":       set,
		"Questions": viewQuestions(questions),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := s.monitor.Snapshot()
	s.render(w, "metrics", map[string]interface{}{
		"Metrics": metrics,
	})
}

const baseTemplate = `{{define "base"}}<!DOCTYPE html>
<html>
<head>
<title>Question Generator</title>
<style>
body { font-family: sans-serif; max-width: 860px; margin: 2em auto; padding: 0 1em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.6em; text-align: left; }
.flash { background: #eef6ee; border: 1px solid #9c9; padding: 0.6em; margin: 1em 0; }
.question { border: 1px solid #ddd; padding: 0.8em; margin: 0.8em 0; }
.answer { color: #060; }
</style>
</head>
<body>
<p><a href="/">Home</a> | <a href="/metrics">Metrics</a></p>
{{template "content" .}}
</body>
</html>{{end}}`

var pageTemplates = map[string]string{
	"home": `{{define "content"}}
<h1>Question Generator</h1>
{{range .Messages}}<div class="flash">{{.}}</div>{{end}}
<h2>Generate from a document</h2>
<form action="/generate" method="post" enctype="multipart/form-data">
<p><input type="file" name="document" accept=".pdf,.txt,.md" required></p>
<p>Type:
<select name="question_type">{{range .Types}}<option value="{{.}}">{{.}}</option>{{end}}</select>
Questions: <input type="number" name="num_questions" value="10" min="1" max="100">
</p>
<p>Topic (optional): <input type="text" name="topic">
Difficulty:
<select name="difficulty">
<option value="low">low</option>
<option value="medium" selected>medium</option>
<option value="high">high</option>
</select>
Language: <input type="text" name="language" value="English" size="10">
</p>
<p><button type="submit">Generate</button></p>
</form>
<h2>Question sets</h2>
{{if .Sets}}
<table>
<tr><th>Source</th><th>Type</th><th>Topic</th><th>Questions</th><th>Quality</th><th>Created</th></tr>
{{range .Sets}}
<tr>
<td><a href="/set/{{.ID}}">{{.SourceFile}}</a></td>
<td>{{.QuestionType}}</td>
<td>{{.Topic}}</td>
<td>{{.FilteredCount}}/{{.RequestedCount}}</td>
<td>{{.QualityScore}}</td>
<td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td>
</tr>
{{end}}
</table>
{{else}}<p>No question sets yet.</p>{{end}}
{{end}}`,

	"set": `{{define "content"}}
<h1>{{.Set.SourceFile}}</h1>
<p>{{.Set.QuestionType}} | {{.Set.Difficulty}} | {{.Set.Language}}
| generated {{.Set.GeneratedCount}}, kept {{.Set.FilteredCount}}
| quality {{.Set.QualityScore}}/100</p>
{{range .Questions}}
<div class="question">
<p><b>Q{{.Num}}.</b> {{.Prompt}}</p>
{{range .Options}}<p>{{.Letter}}. {{.Text}}</p>{{end}}
{{if .Answer}}<p class="answer">Answer: {{.Answer}}</p>{{end}}
{{if .ModelAnswer}}<p class="answer">Model answer: {{.ModelAnswer}}</p>{{end}}
</div>
{{end}}
{{end}}`,

	"metrics": `{{define "content"}}
<h1>Generation metrics</h1>
<table>
<tr><td>Total questions generated</td><td>{{.Metrics.TotalQuestionsGenerated}}</td></tr>
<tr><td>Average question length</td><td>{{printf "%.1f" .Metrics.AverageQuestionLength}}</td></tr>
<tr><td>Average options per question</td><td>{{printf "%.1f" .Metrics.AverageOptionsPerQuestion}}</td></tr>
<tr><td>Generation success rate</td><td>{{printf "%.2f" .Metrics.GenerationSuccessRate}}</td></tr>
<tr><td>Filter pass rate</td><td>{{printf "%.2f" .Metrics.FilterPassRate}}</td></tr>
</table>
<h2>By type</h2>
<table>{{range $type, $count := .Metrics.QuestionsByType}}<tr><td>{{$type}}</td><td>{{$count}}</td></tr>{{end}}</table>
<h2>By difficulty</h2>
<table>{{range $d, $count := .Metrics.QuestionsByDifficulty}}<tr><td>{{$d}}</td><td>{{$count}}</td></tr>{{end}}</table>
{{end}}`,
}
