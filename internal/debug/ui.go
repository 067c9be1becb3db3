package debug

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

type UIContext struct {
	X, Y       int
	LineHeight int
	FontHeight int
}

func NewUIContext(x, y, lineHeight, fontHeight int) *UIContext {
	return &UIContext{X: x, Y: y, LineHeight: lineHeight, FontHeight: fontHeight}
}

func (ui *UIContext) Label(text string) {
	rl.DrawText(text, int32(ui.X), int32(ui.Y), int32(ui.FontHeight), rl.White)
	ui.Y += ui.LineHeight
}

func (ui *UIContext) IndentLabel(text string, indent int) {
	rl.DrawText(text, int32(ui.X+indent), int32(ui.Y), int32(ui.FontHeight), rl.LightGray)
	ui.Y += ui.LineHeight
}

func (ui *UIContext) Separator() {
	ui.Y += ui.LineHeight / 2
}

func (ui *UIContext) Header(text string) {
	rl.DrawText(text, int32(ui.X), int32(ui.Y), int32(ui.FontHeight), rl.Yellow)
	ui.Y += ui.LineHeight
}
