package render

import (
	"fmt"
	"io"
)

// Banner and exit texts.
const (
	BannerTitle = "** Entering embedded shell:"
	BannerExit  = "Hit Ctrl-D to exit this shell and resume execution."
	BannerKill  = "Use %kill_embedded to deactivate future shells."
	ExitMessage = "** Leaving embedded shell."
)

// Banner returns the text shown when a shell opens: a blank line, the bold
// title, then the two usage lines.
func (t *Theme) Banner() string {
	return "\n" +
		t.Message(BannerTitle, true) + "\n" +
		t.Message(BannerExit, false) + "\n" +
		t.Message(BannerKill, false)
}

// Exit returns the message shown when a shell closes.
func (t *Theme) Exit() string {
	return t.Message(ExitMessage, true)
}

// RenderBanner writes the banner followed by the call-site message.
func RenderBanner(w io.Writer, t *Theme, site string) {
	fmt.Fprintln(w, t.Banner())
	if site != "" {
		fmt.Fprintln(w, site)
	}
	fmt.Fprintln(w)
}

// RenderExit writes the exit message.
func RenderExit(w io.Writer, t *Theme) {
	fmt.Fprintln(w, t.Exit())
}
