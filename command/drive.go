package command

import "fmt"

// Drive (did=22).
var (
	SetRawMotors               = Method{DIDDrive, 1}
	ResetYaw                   = Method{DIDDrive, 6}
	DriveWithHeading           = Method{DIDDrive, 7}
	GenericRawMotor            = Method{DIDDrive, 11}
	SetStabilization           = Method{DIDDrive, 12}
	SetControlSystemType       = Method{DIDDrive, 14}
	SetComponentParameters     = Method{DIDDrive, 32}
	GetComponentParameters     = Method{DIDDrive, 33}
	SetCustomControlSystemTimeout = Method{DIDDrive, 34}
	EnableMotorStallNotify     = Method{DIDDrive, 37}
	EnableMotorFaultNotify     = Method{DIDDrive, 39}
	GetMotorFaultState         = Method{DIDDrive, 41}
)

var (
	MotorStallNotify = Notifier{Method: Method{DIDDrive, 38}}
	MotorFaultNotify = Notifier{Method: Method{DIDDrive, 40}}
)

// DriveFlags bits for DriveWithHeading (v2).
type DriveFlags byte

const (
	DriveForward DriveFlags = 0b00
	DriveBackward DriveFlags = 0b01
	DriveTurbo   DriveFlags = 0b10
)

// EncodeDriveWithHeading packs [speed, heading_be16, flags].
func EncodeDriveWithHeading(speed byte, heading uint16, flags DriveFlags) []byte {
	out := []byte{speed}
	out = append(out, be16(heading)...)
	out = append(out, byte(flags))
	return out
}

// RawMotorMode is the abstract motor mode used by SetRawMotors.
type RawMotorMode byte

const (
	RawMotorOff     RawMotorMode = 0
	RawMotorForward RawMotorMode = 1
	RawMotorReverse RawMotorMode = 2
)

// EncodeSetRawMotors packs [left_mode, left_speed, right_mode, right_speed].
func EncodeSetRawMotors(leftMode RawMotorMode, leftSpeed byte, rightMode RawMotorMode, rightSpeed byte) []byte {
	return []byte{byte(leftMode), leftSpeed, byte(rightMode), rightSpeed}
}

// EncodeSetStabilization packs a single on/off byte.
func EncodeSetStabilization(on bool) []byte {
	if on {
		return []byte{1}
	}
	return []byte{0}
}

// EncodeResetYaw has no payload.
func EncodeResetYaw() []byte { return nil }

// MotorFaultState decodes GetMotorFaultState's response.
type MotorFaultState struct {
	Faulted bool
}

func DecodeMotorFaultState(b []byte) (MotorFaultState, error) {
	if len(b) < 1 {
		return MotorFaultState{}, fmt.Errorf("command: motor fault state payload empty")
	}
	return MotorFaultState{Faulted: b[0] != 0}, nil
}
