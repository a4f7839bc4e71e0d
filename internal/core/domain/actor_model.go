package domain

const (
	ACTOR_ID_MASTER    = "master"
	ACTOR_ID_MQTT      = "mqtt"
	ACTOR_ID_ACCESSORY = "accessory"
)

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}

// Accessory requests

type GetReadingRequest struct {
	ActorRequestMixIn
}

type GetReadingResponse struct {
	ActorResponseMixIn
	Accessory AccessoryInfo
	Reading   Reading
}

type GetCharacteristicRequest struct {
	ActorRequestMixIn
	Characteristic Characteristic
}

// GetCharacteristicResponse carries the last polled value. ResponseError is
// set when the characteristic is in the error state.
type GetCharacteristicResponse struct {
	ActorResponseMixIn
	Characteristic Characteristic
	Value          any
}

type SetCharacteristicRequest struct {
	ActorRequestMixIn
	Characteristic Characteristic
	Value          any
}

// SetCharacteristicResponse echoes the current value, the requested value is ignored
type SetCharacteristicResponse struct {
	ActorResponseMixIn
	Characteristic Characteristic
	Value          any
}

// Master requests

type ListAccessoriesRequest struct {
	ActorRequestMixIn
}

type AccessoryRef struct {
	Info AccessoryInfo
	Ref  *ActorRef
}

type ListAccessoriesResponse struct {
	ActorResponseMixIn
	Identity    DeviceIdentity
	Accessories []AccessoryRef
}

// MQTT requests

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishAccessoryStateRequest struct {
	ActorRequestMixIn
	Accessory AccessoryInfo
	Reading   Reading
}

type PublishAccessoryStateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Lights  []GenericLight
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}
