package wire

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/magicdog/sdk/pkg/types"
)

// File identifiers of the binary tables.
const (
	IdentLegCommand = "MDLC"
	IdentLegState   = "MDLS"
	IdentImu        = "MDIM"
)

const (
	legCommandStructSize = 5 * 8
	legStateStructSize   = 3 * 8
	identOffset          = flatbuffers.SizeUOffsetT
	identEnd             = identOffset + 4
)

// Table layouts. Each constant is a field slot.
const (
	legSlotTimestamp = 0
	legSlotJoints    = 1

	imuSlotTimestamp   = 0
	imuSlotOrientation = 1
	imuSlotAngular     = 2
	imuSlotLinear      = 3
	imuSlotTemperature = 4
	imuFieldCount      = 5
	legTableFieldCount = 2
)

func vtable(slot int) flatbuffers.VOffsetT {
	return flatbuffers.VOffsetT(4 + 2*slot)
}

// Identify returns the file identifier of a finished buffer, or "" when the
// buffer is too short to carry one.
func Identify(buf []byte) string {
	if len(buf) < identEnd {
		return ""
	}
	return string(buf[identOffset:identEnd])
}

// EncodeLegCommand serializes a joint command as an MDLC table.
func EncodeLegCommand(cmd *types.LegJointCommand) []byte {
	b := flatbuffers.NewBuilder(legCommandStructSize*types.LegJointNum + 64)

	b.StartVector(legCommandStructSize, types.LegJointNum, 8)
	for i := types.LegJointNum - 1; i >= 0; i-- {
		j := cmd.Cmd[i]
		b.Prep(8, legCommandStructSize)
		b.PrependFloat64(j.Kd)
		b.PrependFloat64(j.Kp)
		b.PrependFloat64(j.TauDes)
		b.PrependFloat64(j.DqDes)
		b.PrependFloat64(j.QDes)
	}
	joints := b.EndVector(types.LegJointNum)

	b.StartObject(legTableFieldCount)
	b.PrependInt64Slot(legSlotTimestamp, cmd.Timestamp, 0)
	b.PrependUOffsetTSlot(legSlotJoints, joints, 0)
	b.FinishWithFileIdentifier(b.EndObject(), []byte(IdentLegCommand))
	return b.FinishedBytes()
}

// DecodeLegCommand parses an MDLC table.
func DecodeLegCommand(buf []byte) (cmd types.LegJointCommand, err error) {
	defer recoverInvalid(&err)

	t, err := rootTable(buf, IdentLegCommand)
	if err != nil {
		return cmd, err
	}
	start, err := structVector(t, legSlotJoints, legCommandStructSize, types.LegJointNum)
	if err != nil {
		return cmd, err
	}
	cmd.Timestamp = t.GetInt64Slot(vtable(legSlotTimestamp), 0)
	for i := range cmd.Cmd {
		pos := start + flatbuffers.UOffsetT(i*legCommandStructSize)
		cmd.Cmd[i] = types.SingleLegJointCommand{
			QDes:   t.GetFloat64(pos),
			DqDes:  t.GetFloat64(pos + 8),
			TauDes: t.GetFloat64(pos + 16),
			Kp:     t.GetFloat64(pos + 24),
			Kd:     t.GetFloat64(pos + 32),
		}
	}
	return cmd, nil
}

// EncodeLegState serializes a joint state sample as an MDLS table.
func EncodeLegState(st *types.LegState) []byte {
	b := flatbuffers.NewBuilder(legStateStructSize*types.LegJointNum + 64)

	b.StartVector(legStateStructSize, types.LegJointNum, 8)
	for i := types.LegJointNum - 1; i >= 0; i-- {
		j := st.State[i]
		b.Prep(8, legStateStructSize)
		b.PrependFloat64(j.TauEst)
		b.PrependFloat64(j.Dq)
		b.PrependFloat64(j.Q)
	}
	joints := b.EndVector(types.LegJointNum)

	b.StartObject(legTableFieldCount)
	b.PrependInt64Slot(legSlotTimestamp, st.Timestamp, 0)
	b.PrependUOffsetTSlot(legSlotJoints, joints, 0)
	b.FinishWithFileIdentifier(b.EndObject(), []byte(IdentLegState))
	return b.FinishedBytes()
}

// DecodeLegState parses an MDLS table.
func DecodeLegState(buf []byte) (st types.LegState, err error) {
	defer recoverInvalid(&err)

	t, err := rootTable(buf, IdentLegState)
	if err != nil {
		return st, err
	}
	start, err := structVector(t, legSlotJoints, legStateStructSize, types.LegJointNum)
	if err != nil {
		return st, err
	}
	st.Timestamp = t.GetInt64Slot(vtable(legSlotTimestamp), 0)
	for i := range st.State {
		pos := start + flatbuffers.UOffsetT(i*legStateStructSize)
		st.State[i] = types.SingleLegJointState{
			Q:      t.GetFloat64(pos),
			Dq:     t.GetFloat64(pos + 8),
			TauEst: t.GetFloat64(pos + 16),
		}
	}
	return st, nil
}

// EncodeImu serializes an IMU sample as an MDIM table.
func EncodeImu(imu *types.Imu) []byte {
	b := flatbuffers.NewBuilder(160)

	orientation := float64Vector(b, imu.Orientation[:])
	angular := float64Vector(b, imu.AngularVelocity[:])
	linear := float64Vector(b, imu.LinearAcceleration[:])

	b.StartObject(imuFieldCount)
	b.PrependInt64Slot(imuSlotTimestamp, imu.Timestamp, 0)
	b.PrependUOffsetTSlot(imuSlotOrientation, orientation, 0)
	b.PrependUOffsetTSlot(imuSlotAngular, angular, 0)
	b.PrependUOffsetTSlot(imuSlotLinear, linear, 0)
	b.PrependFloat64Slot(imuSlotTemperature, imu.Temperature, 0)
	b.FinishWithFileIdentifier(b.EndObject(), []byte(IdentImu))
	return b.FinishedBytes()
}

// DecodeImu parses an MDIM table.
func DecodeImu(buf []byte) (imu types.Imu, err error) {
	defer recoverInvalid(&err)

	t, err := rootTable(buf, IdentImu)
	if err != nil {
		return imu, err
	}
	if err := readFloat64Vector(t, imuSlotOrientation, imu.Orientation[:]); err != nil {
		return imu, err
	}
	if err := readFloat64Vector(t, imuSlotAngular, imu.AngularVelocity[:]); err != nil {
		return imu, err
	}
	if err := readFloat64Vector(t, imuSlotLinear, imu.LinearAcceleration[:]); err != nil {
		return imu, err
	}
	imu.Timestamp = t.GetInt64Slot(vtable(imuSlotTimestamp), 0)
	imu.Temperature = t.GetFloat64Slot(vtable(imuSlotTemperature), 0)
	return imu, nil
}

func rootTable(buf []byte, ident string) (flatbuffers.Table, error) {
	if got := Identify(buf); got != ident {
		return flatbuffers.Table{}, fmt.Errorf("%w: identifier %q, want %q", ErrInvalidFlatbuffer, got, ident)
	}
	pos := flatbuffers.GetUOffsetT(buf)
	if int(pos) < identEnd || int(pos) >= len(buf) {
		return flatbuffers.Table{}, fmt.Errorf("%w: root offset %d out of range", ErrInvalidFlatbuffer, pos)
	}
	return flatbuffers.Table{Bytes: buf, Pos: pos}, nil
}

// structVector returns the absolute position of the first element of a
// vector of n fixed-size structs.
func structVector(t flatbuffers.Table, slot, size, n int) (flatbuffers.UOffsetT, error) {
	o := flatbuffers.UOffsetT(t.Offset(vtable(slot)))
	if o == 0 {
		return 0, fmt.Errorf("%w: missing vector in slot %d", ErrInvalidFlatbuffer, slot)
	}
	if l := t.VectorLen(o); l != n {
		return 0, fmt.Errorf("%w: vector length %d, want %d", ErrInvalidFlatbuffer, l, n)
	}
	start := t.Vector(o)
	if int(start)+n*size > len(t.Bytes) {
		return 0, fmt.Errorf("%w: vector overruns buffer", ErrInvalidFlatbuffer)
	}
	return start, nil
}

func float64Vector(b *flatbuffers.Builder, vals []float64) flatbuffers.UOffsetT {
	b.StartVector(8, len(vals), 8)
	for i := len(vals) - 1; i >= 0; i-- {
		b.PrependFloat64(vals[i])
	}
	return b.EndVector(len(vals))
}

func readFloat64Vector(t flatbuffers.Table, slot int, dst []float64) error {
	start, err := structVector(t, slot, 8, len(dst))
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = t.GetFloat64(start + flatbuffers.UOffsetT(i*8))
	}
	return nil
}

// recoverInvalid turns an out-of-range read on a corrupt buffer into ErrInvalidFlatbuffer.
func recoverInvalid(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrInvalidFlatbuffer, r)
	}
}
