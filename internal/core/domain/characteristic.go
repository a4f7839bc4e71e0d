package domain

import "fmt"

type Characteristic string

const (
	CHARACTERISTIC_ON                  Characteristic = "on"
	CHARACTERISTIC_BRIGHTNESS          Characteristic = "brightness"
	CHARACTERISTIC_AMBIENT_LIGHT_LEVEL Characteristic = "ambient_light_level"
)

var Characteristics = []Characteristic{
	CHARACTERISTIC_ON,
	CHARACTERISTIC_BRIGHTNESS,
	CHARACTERISTIC_AMBIENT_LIGHT_LEVEL,
}

func ParseCharacteristic(s string) (Characteristic, error) {
	for _, c := range Characteristics {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown characteristic %q", s)
}

// Characteristic returns the current value of c, or the error it is marked with.
func (r Reading) Characteristic(c Characteristic) (any, error) {
	switch c {
	case CHARACTERISTIC_ON:
		v, err := r.On.Get()
		return v, err
	case CHARACTERISTIC_BRIGHTNESS:
		v, err := r.Level.Get()
		return v, err
	case CHARACTERISTIC_AMBIENT_LIGHT_LEVEL:
		v, err := r.Magnitude.Get()
		return v, err
	}
	return nil, fmt.Errorf("unknown characteristic %q", c)
}

// AccessoryInfo describes one exposed accessory
type AccessoryInfo struct {
	Id       string
	Name     string
	Kind     MeteringKind
	Identity DeviceIdentity
}

func NewAccessoryInfo(kind MeteringKind, identity DeviceIdentity) AccessoryInfo {
	return AccessoryInfo{
		Id:       kind.Id(),
		Name:     kind.String(),
		Kind:     kind,
		Identity: identity,
	}
}
