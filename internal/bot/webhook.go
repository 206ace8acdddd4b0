package bot

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookHandler accepts an update pushed by Telegram. The update is
// acknowledged at once and handled in the background, so Telegram never
// waits on a schedule lookup.
func (b *Bot) WebhookHandler(c *gin.Context) {
	var u tgbotapi.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		b.log.WithError(err).Warn("Invalid webhook payload")
		c.Status(http.StatusBadRequest)
		return
	}
	c.Status(http.StatusOK)
	b.Dispatch(u)
}
