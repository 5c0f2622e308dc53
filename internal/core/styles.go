package core

import (
	"log"
	"os"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"
)

// DefaultStylePath is where users may put CSS overriding the built-in style.
const DefaultStylePath = "~/.config/shell-search/style.css"

const defaultStyles = `
#launcher-window {
    background-color: #0e1419;
    color: #ebdbb2;
    border-radius: 8px;
    border: 1px solid #313244;
}

#main-box {
    background-color: transparent;
    padding: 12px;
}

#search {
    background-color: #181825;
    color: #ebdbb2;
    padding: 8px 12px;
    border: none;
    border-bottom: 1px solid #313244;
    margin-bottom: 12px;
}

#search:focus {
    border-bottom: 1px solid #89b4fa;
}

#results, #actions {
    background-color: transparent;
}

#entry, #action {
    border-radius: 6px;
    padding: 8px;
}

#entry label {
    color: #ebdbb2;
}

#entry:hover, #action:hover {
    background-color: #313244;
}

#entry:selected, #action:selected {
    background-color: #89b4fa;
}

#entry:selected label, #action:selected label {
    color: #1e1e2e;
}

#details-name {
    font-size: 20px;
    font-weight: bold;
}

#details-comment {
    color: #a6adc8;
}
`

var globalStyleProvider *gtk.CssProvider

func SetupStyles() {
	screen, err := gdk.ScreenGetDefault()
	if err != nil || screen == nil {
		log.Printf("Warning: Failed to get default screen: %v", err)
		return
	}

	provider, err := gtk.CssProviderNew()
	if err != nil {
		log.Printf("Warning: Failed to create CSS provider: %v", err)
		return
	}
	if err := provider.LoadFromData(defaultStyles); err != nil {
		log.Printf("Warning: Failed to load default styles: %v", err)
		return
	}

	globalStyleProvider = provider
	gtk.AddProviderForScreen(screen, provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// LoadCustomCSS applies the user's stylesheet on top of the defaults. A
// missing file is not an error.
func LoadCustomCSS(path string) {
	screen, err := gdk.ScreenGetDefault()
	if err != nil || screen == nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Failed to read %s: %v", path, err)
		}
		return
	}

	provider, err := gtk.CssProviderNew()
	if err != nil {
		return
	}
	if err := provider.LoadFromData(string(data)); err != nil {
		log.Printf("Warning: Failed to load %s: %v", path, err)
		return
	}
	gtk.AddProviderForScreen(screen, provider, gtk.STYLE_PROVIDER_PRIORITY_USER)
	log.Printf("Loaded custom styles from %s", path)
}
