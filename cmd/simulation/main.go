package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api/assistant/v1"

// Simplified DTOs for the script
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type sessionData struct {
	Id       string `json:"id"`
	FileName string `json:"file_name"`
	Mode     string `json:"mode"`
}

type messageData struct {
	Type  string   `json:"type"`
	Text  string   `json:"text"`
	Items []string `json:"items"`
}

type chatData struct {
	Mode        string                 `json:"mode"`
	Reply       *messageData           `json:"reply"`
	ChangeAdded map[string]interface{} `json:"change_added"`
}

type modeData struct {
	Mode     string        `json:"mode"`
	Appended []messageData `json:"appended"`
}

var (
	userColor  = color.New(color.FgCyan, color.Bold)
	aiColor    = color.New(color.FgGreen)
	stepColor  = color.New(color.FgYellow, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
)

func main() {
	fmt.Println("=== Manuscript Assistant Simulation Client ===")

	manuscript := "Глава 1. Ночь над городом.\nДетектив Орлов смотрел на дождь за окном..."
	if len(os.Args) > 1 {
		raw, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to read manuscript file: %v", err)
		}
		manuscript = string(raw)
	}

	sessionID := createSession("roman.txt", manuscript)
	stepColor.Printf("Session Created: %s\n", sessionID)

	// 1. Free-form question in default mode
	chat(sessionID, "О чём эта книга?")

	// 2. Genre picker: backend generates genre candidates
	selectMode(sessionID, "genre_picker")
	applyGenres(sessionID, []string{"детектив", "нуар"})

	// 3. Chapter summary with disambiguation
	selectMode(sessionID, "summary_picker")
	chat(sessionID, "сцена с дождём в первой главе")

	// 4. Annotation: generate, refine, then apply
	selectMode(sessionID, "annotation_picker")
	chat(sessionID, "Сделай короче и добавь интриги")
	applyAnnotation(sessionID, "Финальный текст аннотации.")

	// 5. Inspect the change ledger
	listChanges(sessionID)
}

func createSession(fileName, content string) string {
	body := map[string]string{"file_name": fileName, "content": content}
	data := mustRequest("POST", "/session", body)

	var sess sessionData
	if err := json.Unmarshal(data, &sess); err != nil {
		log.Fatalf("Failed to decode session: %v", err)
	}
	return sess.Id
}

func chat(sessionID, text string) {
	userColor.Printf("\nUSER: %s\n", text)

	start := time.Now()
	data := mustRequest("POST", "/session/"+sessionID+"/chat", map[string]string{"chat": text})
	elapsed := time.Since(start)

	var res chatData
	if err := json.Unmarshal(data, &res); err != nil {
		errorColor.Printf("Failed to decode reply: %v\n", err)
		return
	}

	if res.Reply != nil {
		printMessage(*res.Reply, elapsed)
	}
	if res.ChangeAdded != nil {
		stepColor.Println("  -> change recorded in the ledger")
	}
}

func selectMode(sessionID, mode string) {
	stepColor.Printf("\n--- Switching mode: %s ---\n", mode)
	data := mustRequest("POST", "/session/"+sessionID+"/mode", map[string]string{"mode": mode})

	var res modeData
	if err := json.Unmarshal(data, &res); err == nil {
		for _, msg := range res.Appended {
			printMessage(msg, 0)
		}
	}
}

func printMessage(msg messageData, elapsed time.Duration) {
	prefix := "AI"
	if elapsed > 0 {
		prefix = fmt.Sprintf("AI (%v)", elapsed)
	}
	switch msg.Type {
	case "genre_slider":
		aiColor.Printf("%s [genres]: %v\n", prefix, msg.Items)
	default:
		aiColor.Printf("%s: %s\n", prefix, msg.Text)
	}
}

func applyGenres(sessionID string, items []string) {
	stepColor.Printf("\n--- Applying genres: %v ---\n", items)
	mustRequest("POST", "/session/"+sessionID+"/genres/apply", map[string]interface{}{"items": items})
}

func applyAnnotation(sessionID, annotation string) {
	stepColor.Println("\n--- Applying annotation ---")
	mustRequest("POST", "/session/"+sessionID+"/annotation/apply", map[string]string{"annotation": annotation})
}

func listChanges(sessionID string) {
	stepColor.Println("\n--- Change ledger ---")
	data := mustRequest("GET", "/session/"+sessionID+"/changes", nil)

	var changes []map[string]interface{}
	if err := json.Unmarshal(data, &changes); err != nil {
		errorColor.Printf("Failed to decode changes: %v\n", err)
		return
	}
	for _, c := range changes {
		fmt.Printf("  [%v] %v\n", c["timestamp"], c["type"])
	}
}

func mustRequest(method, path string, body interface{}) json.RawMessage {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		errorColor.Printf("HTTP %d: %s\n", resp.StatusCode, string(raw))
		os.Exit(1)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Fatalf("Failed to decode envelope: %v", err)
	}
	return env.Data
}
