package wire

import (
	"encoding/json"
	"fmt"

	"github.com/magicdog/sdk/pkg/types"
)

// EncodeTopic serializes a stream sample for topic. Leg state and IMU go out
// as FlatBuffers tables, everything else as JSON.
func EncodeTopic(topic string, v interface{}) ([]byte, error) {
	switch topic {
	case TopicLegState:
		switch st := v.(type) {
		case *types.LegState:
			return EncodeLegState(st), nil
		case types.LegState:
			return EncodeLegState(&st), nil
		}
		return nil, fmt.Errorf("topic %s: unexpected payload %T", topic, v)
	case TopicImu:
		switch imu := v.(type) {
		case *types.Imu:
			return EncodeImu(imu), nil
		case types.Imu:
			return EncodeImu(&imu), nil
		}
		return nil, fmt.Errorf("topic %s: unexpected payload %T", topic, v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("topic %s: %w", topic, err)
	}
	return data, nil
}

// DecodeTopic is the inverse of EncodeTopic. out must be a pointer.
func DecodeTopic(topic string, data []byte, out interface{}) error {
	switch topic {
	case TopicLegState:
		dst, ok := out.(*types.LegState)
		if !ok {
			return fmt.Errorf("topic %s: unexpected target %T", topic, out)
		}
		st, err := DecodeLegState(data)
		if err != nil {
			return err
		}
		*dst = st
		return nil
	case TopicImu:
		dst, ok := out.(*types.Imu)
		if !ok {
			return fmt.Errorf("topic %s: unexpected target %T", topic, out)
		}
		imu, err := DecodeImu(data)
		if err != nil {
			return err
		}
		*dst = imu
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: topic %s: %v", ErrInvalidMessage, topic, err)
	}
	return nil
}
