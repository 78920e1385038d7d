package validate

import (
	"errors"
	"reflect"
	"strings"

	"bakery_manager/constants"
	"bakery_manager/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Describe turns the first validation error into a client message.
func Describe(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return constants.INVALID_REQUEST_BODY
	}
	fe := errs[0]
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	if fe.Tag() == "required" {
		return "Missing required field: " + field
	}
	return "Invalid value for field: " + field
}

// parseBody decodes and validates the JSON body. On failure it returns the client
// message with the cause.
func parseBody[T any](c *fiber.Ctx, allowEmpty bool) (T, string, error) {
	var input T
	if len(c.Body()) == 0 && allowEmpty {
		return input, "", nil
	}
	if err := c.BodyParser(&input); err != nil {
		return input, constants.INVALID_REQUEST_BODY, err
	}
	if err := validate.Struct(input); err != nil {
		return input, Describe(err), err
	}
	return input, "", nil
}

// Body parses and validates a JSON body of type T into c.Locals("input").
func Body[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, msg, err := parseBody[T](c, false)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, msg, err)
		}
		c.Locals("input", input)
		return c.Next()
	}
}

// GetByID parses a uuid route param into c.Locals("inputId").
func GetByID(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params(key))
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid id", err)
		}
		c.Locals("inputId", id)
		return c.Next()
	}
}
