package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/zonedash/internal/ui/theme"
)

const bannerArt = `
 ███████╗ ██████╗ ███╗   ██╗███████╗██████╗  █████╗ ███████╗██╗  ██╗
 ╚══███╔╝██╔═══██╗████╗  ██║██╔════╝██╔══██╗██╔══██╗██╔════╝██║  ██║
   ███╔╝ ██║   ██║██╔██╗ ██║█████╗  ██║  ██║███████║███████╗███████║
  ███╔╝  ██║   ██║██║╚██╗██║██╔══╝  ██║  ██║██╔══██║╚════██║██╔══██║
 ███████╗╚██████╔╝██║ ╚████║███████╗██████╔╝██║  ██║███████║██║  ██║
 ╚══════╝ ╚═════╝ ╚═╝  ╚═══╝╚══════╝╚═════╝ ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝`

const bannerCompact = "Z O N E D A S H"

// bannerMinWidth is the narrowest terminal that fits bannerArt.
const bannerMinWidth = 70

// RenderBanner returns the banner styled in the primary color, or the
// compact one for narrow terminals.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerMinWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
