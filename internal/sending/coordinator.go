package sending

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"lombard-poster-bot/internal/media"
	"lombard-poster-bot/pkg/telegoapi"
)

// ErrNothingToSend is returned when a post has neither caption nor media.
var ErrNothingToSend = errors.New("sending: nothing to send")

// Destination is one configured publish target.
type Destination struct {
	Name   string
	ChatID int64
}

// Result records one destination's outcome. Message carries the error text
// on failure, empty on success.
type Result struct {
	Name    string
	ChatID  int64
	OK      bool
	Message string
}

// Coordinator executes delivery plans against the bot gateway.
type Coordinator struct {
	bot telegoapi.BotAPI
}

// NewCoordinator creates a coordinator on the given gateway.
func NewCoordinator(bot telegoapi.BotAPI) *Coordinator {
	return &Coordinator{bot: bot}
}

// Dispatch publishes the post to one chat. Grouped album sends that fail
// are retried as individual photo messages, and if no media transmission
// delivered anything but a caption exists, it goes out as a bare text
// message. An error therefore means the destination received nothing.
func (c *Coordinator) Dispatch(ctx context.Context, chatID int64, post Post) error {
	plan := BuildDeliveryPlan(post)
	if len(plan) == 0 {
		return ErrNothingToSend
	}

	var firstErr error
	delivered := 0
	for _, step := range plan {
		if err := c.execute(ctx, chatID, step); err != nil {
			log.Printf("[Send Chat:%d] Step failed: %v", chatID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delivered++
	}
	if delivered > 0 {
		return nil
	}
	if post.Caption != "" && plan[0].Kind != StepText {
		log.Printf("[Send Chat:%d] All media steps failed, falling back to text-only", chatID)
		if err := c.sendText(ctx, chatID, post.Caption); err == nil {
			return nil
		}
	}
	return firstErr
}

// DispatchAll publishes the post to every destination, one result per
// destination. A failed destination never blocks the remaining ones.
func (c *Coordinator) DispatchAll(ctx context.Context, post Post, dests []Destination) []Result {
	results := make([]Result, 0, len(dests))
	for _, d := range dests {
		err := c.Dispatch(ctx, d.ChatID, post)
		if err != nil {
			log.Printf("[Send] Delivery to %s (%d) failed: %v", d.Name, d.ChatID, err)
			results = append(results, Result{Name: d.Name, ChatID: d.ChatID, Message: err.Error()})
			continue
		}
		log.Printf("[Send] Delivered to %s (%d)", d.Name, d.ChatID)
		results = append(results, Result{Name: d.Name, ChatID: d.ChatID, OK: true})
	}
	return results
}

func (c *Coordinator) execute(ctx context.Context, chatID int64, step Step) error {
	switch step.Kind {
	case StepText:
		return c.sendText(ctx, chatID, step.Caption)
	case StepSinglePhoto:
		return c.sendPhoto(ctx, chatID, step.Items[0], step.Caption)
	case StepVideo:
		return c.sendVideo(ctx, chatID, step.Items[0], step.Caption)
	case StepAlbum:
		if err := c.sendAlbum(ctx, chatID, step); err != nil {
			log.Printf("[Send Chat:%d] Album of %d failed (%v), retrying individually", chatID, len(step.Items), err)
			return c.sendIndividually(ctx, chatID, step)
		}
		return nil
	}
	return fmt.Errorf("unknown step kind %d", step.Kind)
}

func (c *Coordinator) sendText(ctx context.Context, chatID int64, text string) error {
	_, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text).
		WithParseMode(telego.ModeHTML).
		WithLinkPreviewOptions(&telego.LinkPreviewOptions{IsDisabled: true}))
	return err
}

func (c *Coordinator) sendPhoto(ctx context.Context, chatID int64, item media.Item, caption string) error {
	file, closeFile, err := inputFile(item)
	if err != nil {
		return err
	}
	defer closeFile()

	params := tu.Photo(tu.ID(chatID), file)
	if caption != "" {
		params = params.WithCaption(caption).WithParseMode(telego.ModeHTML)
	}
	_, err = c.bot.SendPhoto(ctx, params)
	return err
}

func (c *Coordinator) sendVideo(ctx context.Context, chatID int64, item media.Item, caption string) error {
	file, closeFile, err := inputFile(item)
	if err != nil {
		return err
	}
	defer closeFile()

	params := tu.Video(tu.ID(chatID), file)
	if caption != "" {
		params = params.WithCaption(caption).WithParseMode(telego.ModeHTML)
	}
	_, err = c.bot.SendVideo(ctx, params)
	return err
}

func (c *Coordinator) sendAlbum(ctx context.Context, chatID int64, step Step) error {
	group := make([]telego.InputMedia, 0, len(step.Items))
	var closers []func() error
	defer func() {
		for _, cl := range closers {
			cl()
		}
	}()

	for i, item := range step.Items {
		file, closeFile, err := inputFile(item)
		if err != nil {
			return err
		}
		closers = append(closers, closeFile)

		photo := tu.MediaPhoto(file)
		if i == 0 && step.Caption != "" {
			photo = photo.WithCaption(step.Caption).WithParseMode(telego.ModeHTML)
		}
		group = append(group, photo)
	}

	_, err := c.bot.SendMediaGroup(ctx, tu.MediaGroup(tu.ID(chatID), group...))
	return err
}

// sendIndividually is the album fallback. The caption stays on the first
// item. Partial delivery counts as success for the step; per-item failures
// are logged.
func (c *Coordinator) sendIndividually(ctx context.Context, chatID int64, step Step) error {
	var lastErr error
	delivered := 0
	for i, item := range step.Items {
		caption := ""
		if i == 0 {
			caption = step.Caption
		}
		if err := c.sendPhoto(ctx, chatID, item, caption); err != nil {
			log.Printf("[Send Chat:%d] Individual photo %d failed: %v", chatID, i, err)
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return lastErr
	}
	return nil
}

// inputFile resolves an item to a telego input: web photos stream from
// their URL, custom media upload from disk. The returned close func is
// a no-op for web items.
func inputFile(item media.Item) (telego.InputFile, func() error, error) {
	if !item.IsLocalFile() {
		return tu.FileFromURL(item.Ref), func() error { return nil }, nil
	}
	f, err := os.Open(item.Ref)
	if err != nil {
		return telego.InputFile{}, nil, fmt.Errorf("opening %s: %w", item.Ref, err)
	}
	return tu.File(f), f.Close, nil
}
