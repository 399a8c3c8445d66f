package mailer

import (
	"fmt"
	"strings"

	"github.com/senpro-it/wassup/models"
	"github.com/senpro-it/wassup/tools"
)

// Digest lists the items of every pane whose alert is at least threshold.
// Panes without items are left out. ok is false when nothing qualified.
func Digest(out models.Output, threshold models.Alert) (body string, ok bool) {
	var b strings.Builder
	for _, d := range out.Dashboards {
		for _, p := range d.Panes {
			if len(p.Items) == 0 || !p.Alert.AtLeast(threshold) {
				continue
			}
			ok = true
			fmt.Fprintf(&b, "%s / %s [%s]\n", d.Name, p.Name, strings.ToUpper(string(p.Alert)))
			for _, item := range p.Items {
				b.WriteString("  - " + item.Title)
				if sub := tools.ValueOr(item.Subtitle, ""); sub != "" {
					b.WriteString(" (" + sub + ")")
				}
				b.WriteString("\n")
				for _, a := range item.Actions {
					if a.Value.Kind == models.ActionURL {
						b.WriteString("    " + a.Value.Payload + "\n")
					}
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String(), ok
}
