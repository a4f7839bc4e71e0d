package domain

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	SerialNumber string
	ViaDevice    string
}

type GenericSensor struct {
	Device            Device
	Id                string
	AccessoryId       string // empty for bridge sensors
	SensorType        string
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string // measurement
	DeviceClass       string // illuminance, connectivity
	EntityCategory    string // diagnostic, config, nil
	Icon              string
}

// GenericLight is an on/off entity with brightness
type GenericLight struct {
	Device   Device
	Id       string
	Name     string
	UniqueId string
	Icon     string
}
