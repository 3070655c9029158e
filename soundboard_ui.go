package main

import (
	"fmt"
	"image/color"

	"golang.org/x/image/font/basicfont"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/milk9111/sfxqueue/audio"
)

// soundboard is the clickable panel listing every catalog sound.
type soundboard struct {
	ui     *ebitenui.UI
	volume *widget.Text
	last   *widget.Text
}

// newSoundboard builds a right-aligned panel with one button per sound and a
// row of volume controls. Buttons use colored nine-slices and the built-in
// basic font so no theme assets are needed.
func newSoundboard(g *Game, names []string) *soundboard {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 200})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	btnPressed := imageui.NewNineSliceColor(color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 255})

	goFace := ebtext.NewGoXFace(basicfont.Face7x13)
	var face ebtext.Face = goFace

	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	btnTextColor := &widget.ButtonTextColor{Idle: white}
	center := widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})

	button := func(label string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Pressed: btnPressed}),
			widget.ButtonOpts.Text(label, &face, btnTextColor),
			widget.ButtonOpts.WidgetOpts(center),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				onClick()
			}),
		)
	}

	title := widget.NewText(
		widget.TextOpts.Text("Sounds", &face, white),
		widget.TextOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})),
	)
	sb := &soundboard{
		volume: widget.NewText(widget.TextOpts.Text("", &face, white)),
		last:   widget.NewText(widget.TextOpts.Text("", &face, white)),
	}

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(6),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 12, Bottom: 12, Left: 12, Right: 12}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(baseWidth/5, baseHeight/2),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionEnd, VerticalPosition: widget.AnchorLayoutPositionCenter}),
		),
	)
	panel.AddChild(title)
	for _, name := range names {
		id := audio.SoundID(name)
		panel.AddChild(button(name, func() { g.play(id) }))
	}
	panel.AddChild(button("stop last", g.stopLast))
	panel.AddChild(button("volume +", func() { g.sys.Coordinator.ChangeMasterVolume(volumeStep) }))
	panel.AddChild(button("volume -", func() { g.sys.Coordinator.ChangeMasterVolume(-volumeStep) }))
	panel.AddChild(sb.volume)
	panel.AddChild(sb.last)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	sb.ui = &ebitenui.UI{Container: root}
	return sb
}

func (sb *soundboard) refresh(volume float64, last audio.SoundID) {
	sb.volume.Label = fmt.Sprintf("volume %3.0f%%", volume*100)
	if last == "" {
		sb.last.Label = "last: -"
		return
	}
	sb.last.Label = fmt.Sprintf("last: %s", last)
}
