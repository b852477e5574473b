package command

// FactoryTest (did=31): catalogued minimally, since this device id's
// surface is a manufacturing-line tool rather than part of the
// behavioural API a production caller exercises.
var (
	EnableFactoryTestMode = Method{DIDFactoryTest, 1}
)
