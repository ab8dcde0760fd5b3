package sending

import "lombard-poster-bot/internal/media"

const (
	// albumLimit is the Bot API ceiling on media group size.
	albumLimit = 10
	// mediaCaptionLimit is the Bot API ceiling on a media caption.
	mediaCaptionLimit = 1024
)

// StepKind identifies one transmission in a delivery plan.
type StepKind int

const (
	StepText StepKind = iota
	StepSinglePhoto
	StepAlbum
	StepVideo
)

// Step is one outgoing transmission. Items holds the album contents for
// StepAlbum and a single element for StepSinglePhoto/StepVideo. Caption is
// the HTML caption this step carries, empty for all but one step of the
// plan.
type Step struct {
	Kind    StepKind
	Items   []media.Item
	Caption string
}

// BuildDeliveryPlan decides how the post goes out. Photos are grouped into
// albums of at most ten, the caption rides on the first item of the first
// album only. One photo and no videos is a plain photo message, not a
// one-item album. A one-item remainder chunk is likewise demoted to a
// plain photo, since the gateway rejects single-item groups. With no media
// at all the caption goes out as a text message. Videos always go out
// individually; the first one carries the caption only when there are no
// photos.
func BuildDeliveryPlan(post Post) []Step {
	caption := truncateCaption(post.Caption)

	if len(post.Photos) == 0 && len(post.Videos) == 0 {
		if post.Caption == "" {
			return nil
		}
		return []Step{{Kind: StepText, Caption: post.Caption}}
	}

	var plan []Step

	if len(post.Photos) == 1 && len(post.Videos) == 0 {
		return []Step{{Kind: StepSinglePhoto, Items: post.Photos, Caption: caption}}
	}

	photos := post.Photos
	first := true
	for len(photos) > 0 {
		n := len(photos)
		if n > albumLimit {
			n = albumLimit
		}
		chunk := photos[:n]
		photos = photos[n:]

		stepCaption := ""
		if first {
			stepCaption = caption
			first = false
		}
		if n == 1 {
			plan = append(plan, Step{Kind: StepSinglePhoto, Items: chunk, Caption: stepCaption})
		} else {
			plan = append(plan, Step{Kind: StepAlbum, Items: chunk, Caption: stepCaption})
		}
	}

	for i, v := range post.Videos {
		stepCaption := ""
		if i == 0 && len(post.Photos) == 0 {
			stepCaption = caption
		}
		plan = append(plan, Step{Kind: StepVideo, Items: []media.Item{v}, Caption: stepCaption})
	}
	return plan
}

func truncateCaption(caption string) string {
	runes := []rune(caption)
	if len(runes) <= mediaCaptionLimit {
		return caption
	}
	return string(runes[:mediaCaptionLimit])
}
