package tui

import (
	"fmt"
	"strings"

	"Xiuchatbot/models"
)

// rows taken by header, borders, note, input and status
const chromeHeight = 7

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.state.header))
	b.WriteString("\n")
	b.WriteString(chatBoxStyle.Render(m.viewport.View()))
	b.WriteString("\n")

	if m.state.note.Warning {
		b.WriteString(warningNoteStyle.Render(m.state.note.Text))
	} else {
		b.WriteString(noteStyle.Render(m.state.note.Text))
	}
	b.WriteString("\n")

	if m.state.inputEnabled {
		b.WriteString(inputStyle.Render(m.input.View()))
	} else {
		b.WriteString(disabledInputStyle.Render("… menunggu jawaban"))
	}
	b.WriteString("\n")

	status := fmt.Sprintf("Pesan: %d · Enter: kirim · Esc: keluar", len(m.state.messages))
	if m.state.skipEnabled {
		status += " · Tab: lewati"
	}
	b.WriteString(statusStyle.Render(status))
	return b.String()
}

// renderMessages lays out the conversation for the viewport.
func renderMessages(s snapshot, width int) string {
	if len(s.messages) == 0 {
		return metaStyle.Render("Belum ada pesan. Tulis sesuatu untuk mulai.")
	}
	body := messageStyle.Width(max(width-2, 10))
	errBody := errorMessageStyle.Width(max(width-2, 10))

	var b strings.Builder
	for i, msg := range s.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case models.RoleUser:
			b.WriteString(userLabelStyle.Render("Kamu"))
			b.WriteString(" ")
			b.WriteString(metaStyle.Render(models.FormatTime(msg.Timestamp)))
			b.WriteString("\n")
			b.WriteString(body.Render(msg.Rendered))
		default:
			b.WriteString(botLabelStyle.Render("Xiuchatbot"))
			if msg.Final() {
				b.WriteString(" ")
				b.WriteString(metaStyle.Render(models.FormatTime(msg.CompletedAt)))
			}
			b.WriteString("\n")
			switch msg.State {
			case models.StateErrored:
				b.WriteString(errBody.Render(msg.Rendered))
			case models.StateComplete:
				b.WriteString(body.Render(msg.Rendered))
			default:
				if f, ok := s.frames[msg.ID]; ok {
					b.WriteString(body.Render(f.String()))
				} else {
					b.WriteString(metaStyle.Render("mengetik…"))
				}
			}
		}
	}
	return b.String()
}
