package lifecycle

import (
	"context"
	"sync"

	"privlib/internal/record"
)

// Form is the publish input form.
type Form struct {
	Open   bool   `json:"open"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
	Pages  string `json:"pages"`
}

type formState struct {
	mu   sync.Mutex
	form Form
}

func (f *formState) get() Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

func (f *formState) reset() {
	f.mu.Lock()
	f.form = Form{}
	f.mu.Unlock()
}

func (c *Controller) OpenForm() {
	c.form.mu.Lock()
	c.form.form.Open = true
	c.form.mu.Unlock()
}

// CloseForm hides the form and keeps what was typed.
func (c *Controller) CloseForm() {
	c.form.mu.Lock()
	c.form.form.Open = false
	c.form.mu.Unlock()
}

// UpdateForm replaces the field values. Non-digits are dropped from pages as
// they are typed.
func (c *Controller) UpdateForm(title, author, isbn, pages string) {
	c.form.mu.Lock()
	c.form.form.Title = title
	c.form.form.Author = author
	c.form.form.ISBN = isbn
	c.form.form.Pages = record.DigitsOnly(pages)
	c.form.mu.Unlock()
}

func (c *Controller) Form() Form {
	return c.form.get()
}

// SubmitForm publishes the current form contents.
func (c *Controller) SubmitForm(ctx context.Context) (*Published, error) {
	f := c.form.get()
	return c.Publish(ctx, PublishInput{
		Title:  f.Title,
		Author: f.Author,
		ISBN:   f.ISBN,
		Pages:  f.Pages,
	})
}
