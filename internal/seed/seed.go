// Package seed loads the demo accounts and notes.
package seed

import (
	"context"
	"fmt"

	"github.com/dukerupert/tracknotes/internal/docstore"
	"github.com/dukerupert/tracknotes/internal/store"
)

type Account struct {
	Username string
	Password string
}

type NoteData struct {
	Title   string
	Content string
}

// Accounts are created in this order; each owns two consecutive Notes.
var Accounts = []Account{
	{"admin", "admin123"},
	{"student1", "pass1234"},
	{"student2", "mypassword"},
	{"demo", "demo123"},
	{"testuser", "test1234"},
}

var Notes = []NoteData{
	{"System Configuration", "MongoDB running on default port 27017. Admin credentials stored in .env file. Remember to update firewall rules."},
	{"Database Backup Schedule", "Weekly backups every Sunday at 2 AM. Backup stored in /backups directory. Retention policy: 30 days."},
	{"Math Notes - Calculus", "Integration formulas: ∫x^n dx = x^(n+1)/(n+1) + C. Remember the chain rule for derivatives."},
	{"Physics - Quantum Mechanics", "Wave-particle duality: Light exhibits both wave and particle properties. Heisenberg uncertainty principle."},
	{"History Essay Outline", "Topic: Industrial Revolution. Key points: Origins in Britain, Technological innovations, Social impact."},
	{"Chemistry Lab Report", "Experiment: Titration of HCl with NaOH. Objective: Determine the concentration of unknown acid solution."},
	{"Welcome to TrackNotes!", "This is your personal note-taking space. Create, edit, and organize your study notes all in one place."},
	{"Study Tips", "1. Break study sessions into 25-minute intervals. 2. Review notes within 24 hours. 3. Use active recall."},
	{"Project Ideas", "Build a weather app using React. Create a REST API with Express. Design a portfolio website."},
	{"Interview Prep", "Common questions: Tell me about yourself. What are your strengths? Describe a challenging project."},
}

const notesPerAccount = 2

type Result struct {
	Users int
	Notes int
}

// Run clears users, notes and sessions, then inserts the demo data.
func Run(ctx context.Context, ds *docstore.Store) (Result, error) {
	users := store.NewUserStore(ds)
	sessions := store.NewSessionStore(ds)
	notes := store.NewNoteStore(ds)

	if _, err := users.DeleteAll(ctx); err != nil {
		return Result{}, err
	}
	if _, err := notes.DeleteAll(ctx); err != nil {
		return Result{}, err
	}
	if _, err := sessions.DeleteAll(ctx); err != nil {
		return Result{}, err
	}

	var res Result
	for i, acct := range Accounts {
		u, err := users.Create(ctx, acct.Username, acct.Password)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", acct.Username, err)
		}
		res.Users++

		for _, n := range Notes[i*notesPerAccount : (i+1)*notesPerAccount] {
			if _, err := notes.Create(ctx, u.ID, n.Title, n.Content); err != nil {
				return res, fmt.Errorf("seed note %q: %w", n.Title, err)
			}
			res.Notes++
		}
	}
	return res, nil
}
