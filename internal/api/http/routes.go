package httpapi

import (
	"crypto/subtle"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"

	"github.com/i474232898/weatherapi-bot/internal/commands"
	"github.com/i474232898/weatherapi-bot/internal/history"
)

const source = "api"

var validate = validator.New()

// RegisterRoutes wires the command handlers into the Fiber app. Every route
// under /api/v1 requires the bot token as a bearer token.
func RegisterRoutes(app *fiber.App, dispatcher *commands.Dispatcher, hist *history.MemoryStore, botToken string) {
	v1 := app.Group("/api/v1", keyauth.New(keyauth.Config{
		KeyLookup:  "header:" + fiber.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(_ *fiber.Ctx, key string) (bool, error) {
			if subtle.ConstantTimeCompare([]byte(key), []byte(botToken)) == 1 {
				return true, nil
			}
			return false, keyauth.ErrMissingOrMalformedAPIKey
		},
		ErrorHandler: func(_ *fiber.Ctx, _ error) error {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing bot token")
		},
	}))

	v1.Get("/commands", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"guild_id": dispatcher.GuildID(),
			"commands": dispatcher.Registry().List(),
		})
	})

	v1.Post("/commands", func(c *fiber.Ctx) error {
		req, err := parseRequest(c)
		if err != nil {
			return err
		}

		reply, err := dispatcher.Dispatch(c.UserContext(), req, source)
		if err != nil {
			return dispatchError(err)
		}
		return c.JSON(reply)
	})

	// Deferred flow: acknowledge now, read the follow-up later.
	v1.Post("/interactions", func(c *fiber.Ctx) error {
		req, err := parseRequest(c)
		if err != nil {
			return err
		}

		in, err := dispatcher.Defer(req, source)
		if err != nil {
			return dispatchError(err)
		}
		c.Location("/api/v1/interactions/" + in.ID)
		return c.Status(fiber.StatusAccepted).JSON(in)
	})

	v1.Get("/interactions", func(c *fiber.Ctx) error {
		var q listQuery
		q.Limit = c.QueryInt("limit", 20)
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{
			"interactions": hist.Recent(q.Limit),
		})
	})

	v1.Get("/interactions/:id", func(c *fiber.Ctx) error {
		in, err := hist.Get(c.Params("id"))
		if err != nil {
			if errors.Is(err, history.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no interaction with that id")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read interaction")
		}
		return c.JSON(in)
	})

	// Plain-text report, convenient for curl and chat webhooks.
	v1.Get("/weather/:command", func(c *fiber.Ctx) error {
		req := commands.Request{
			Command: c.Params("command"),
			Place:   c.Query("place"),
			GuildID: dispatcher.GuildID(),
			User:    c.Query("user"),
		}
		reply, err := dispatcher.Dispatch(c.UserContext(), req, source)
		if err != nil {
			return dispatchError(err)
		}
		c.Set("X-Weather-Outcome", reply.Outcome)
		return c.SendString(reply.Text)
	})
}

// listQuery holds query parameters for the interaction listing.
type listQuery struct {
	Limit int `validate:"min=1,max=200"`
}

func parseRequest(c *fiber.Ctx) (commands.Request, error) {
	var req commands.Request
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req, nil
}

func dispatchError(err error) error {
	switch {
	case errors.Is(err, commands.ErrUnknownCommand):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, commands.ErrWrongGuild):
		return fiber.NewError(fiber.StatusForbidden, commands.ErrWrongGuild.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to dispatch command")
	}
}
