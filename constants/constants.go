package constants

const (
	ROLE_ADMIN    = "admin"
	ROLE_CUSTOMER = "customer"
)

const (
	ERROR_INTERNAL_ERROR     = "Something went wrong. Please try again later."
	INVALID_REQUEST_BODY     = "Invalid request body"
	ORDER_NOT_FOUND          = "Order not found"
	LOGIN_REQUIRED           = "Please sign in to continue"
	FORBIDDEN                = "You do not have permission to perform this action"
	MISSING_LOGIN_INPUT      = "Email and password are required"
	INVALID_CREDENTIALS      = "Invalid email or password"
	EMAIL_ALREADY_REGISTERED = "An account with this email already exists"
	TOO_MANY_REQUESTS        = "Too many requests. Please try again later."

	CART_EMPTY              = "Cart is empty"
	DELIVERY_ADDRESS_NEEDED = "Delivery address is required"
	INVALID_DELIVERY_DATE   = "Invalid delivery date"
	INVALID_DELIVERY_TIME   = "Invalid delivery time"
	INVALID_TIP             = "Tip amount cannot be negative"
	ITEMS_UNAVAILABLE       = "Some items are no longer available: %s"
	TIME_SLOT_FULL          = "Selected time slot is full."
	DISCOUNT_INVALID        = "Invalid or expired discount code"
	DISCOUNT_MIN_ORDER      = "This discount code requires a minimum order of $%s"
	ZONE_MIN_ORDER          = "Minimum order for delivery to this area is $%s"
	CHECKOUT_FAILED         = "Failed to create order. Please try again."
	PAYMENT_SESSION_FAILED  = "Failed to start payment. Please try again."

	CANCEL_FORBIDDEN      = "You are not authorized to cancel this order"
	CANCEL_RACE           = "Order status changed while cancelling. Please refresh and try again."
	CANCEL_DEFAULT_REASON = "Cancelled by customer"
	CANCEL_SUCCESS        = "Order cancelled successfully"

	INVALID_ORDER_STATUS = "Invalid order status"
	INVALID_TRANSITION   = "Cannot change order status from %s to %s"
	STATUS_RACE          = "Order status changed in the meantime. Please refresh and try again."
	ZONE_NOT_FOUND       = "We do not deliver to this ZIP code yet"
	DISCOUNT_CODE_TAKEN  = "A discount code with this name already exists"
	TIME_SLOT_TAKEN      = "A time slot already starts at this time"

	WEBHOOK_INVALID_SIGNATURE = "Invalid webhook signature"
)

const (
	HEADER_STRIPE_SIGNATURE = "Stripe-Signature"
	COOKIE_ACCESS_TOKEN     = "access_token"
)
