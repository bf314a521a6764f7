package types

// Header stamps a sensor message. Stamp is in nanoseconds.
type Header struct {
	Stamp   int64  `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Imu is one inertial sample. Orientation is a (w, x, y, z) quaternion.
type Imu struct {
	Timestamp          int64      `json:"timestamp"`
	Orientation        [4]float64 `json:"orientation"`
	AngularVelocity    [3]float64 `json:"angular_velocity"`    // rad/s
	LinearAcceleration [3]float64 `json:"linear_acceleration"` // m/s^2
	Temperature        float64    `json:"temperature"`
}

type PointField struct {
	Name     string `json:"name"`
	Offset   int32  `json:"offset"`
	Datatype int8   `json:"datatype"`
	Count    int32  `json:"count"`
}

type PointCloud2 struct {
	Header      Header       `json:"header"`
	Height      int32        `json:"height"`
	Width       int32        `json:"width"`
	Fields      []PointField `json:"fields"`
	IsBigendian bool         `json:"is_bigendian"`
	PointStep   int32        `json:"point_step"`
	RowStep     int32        `json:"row_step"`
	Data        []byte       `json:"data"`
	IsDense     bool         `json:"is_dense"`
}

type Image struct {
	Header      Header `json:"header"`
	Height      int32  `json:"height"`
	Width       int32  `json:"width"`
	Encoding    string `json:"encoding"` // rgb8, mono8, bgr8, 16UC1 ...
	IsBigendian bool   `json:"is_bigendian"`
	Step        int32  `json:"step"` // bytes per row
	Data        []byte `json:"data"`
}

// CameraInfo holds the calibration of a camera stream.
type CameraInfo struct {
	Header          Header      `json:"header"`
	Height          int32       `json:"height"`
	Width           int32       `json:"width"`
	DistortionModel string      `json:"distortion_model"`
	D               []float64   `json:"d"`
	K               [9]float64  `json:"k"`
	R               [9]float64  `json:"r"`
	P               [12]float64 `json:"p"`
	BinningX        int32       `json:"binning_x"`
	BinningY        int32       `json:"binning_y"`
	RoiXOffset      int32       `json:"roi_x_offset"`
	RoiYOffset      int32       `json:"roi_y_offset"`
	RoiHeight       int32       `json:"roi_height"`
	RoiWidth        int32       `json:"roi_width"`
	RoiDoRectify    bool        `json:"roi_do_rectify"`
}

type TrinocularCameraFrame struct {
	Header     Header `json:"header"`
	VinTime    int64  `json:"vin_time"`
	DecodeTime int64  `json:"decode_time"`
	ImgflArray []byte `json:"imgfl_array"`
	ImgfArray  []byte `json:"imgf_array"`
	ImgfrArray []byte `json:"imgfr_array"`
}

type CompressedImage struct {
	Header Header `json:"header"`
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

type LaserScan struct {
	Header         Header    `json:"header"`
	AngleMin       int32     `json:"angle_min"`
	AngleMax       int32     `json:"angle_max"`
	AngleIncrement int32     `json:"angle_increment"`
	TimeIncrement  int32     `json:"time_increment"`
	ScanTime       int32     `json:"scan_time"`
	RangeMin       int32     `json:"range_min"`
	RangeMax       int32     `json:"range_max"`
	Ranges         []float64 `json:"ranges"`
	Intensities    []float64 `json:"intensities"`
}

type MultiArrayDimension struct {
	Label  string `json:"label"`
	Size   int32  `json:"size"`
	Stride int32  `json:"stride"`
}

type MultiArrayLayout struct {
	DimSize    int32                 `json:"dim_size"`
	Dim        []MultiArrayDimension `json:"dim"`
	DataOffset int32                 `json:"data_offset"`
}

type Float32MultiArray struct {
	Layout MultiArrayLayout `json:"layout"`
	Data   []float64        `json:"data"`
}

// ByteMultiArray carries raw audio frames and ultrasonic readings.
type ByteMultiArray struct {
	Layout MultiArrayLayout `json:"layout"`
	Data   []byte           `json:"data"`
}

type Int8 struct {
	Data int8 `json:"data"`
}

// HeadTouch reports which head pad is touched; zero means none.
type HeadTouch = Int8
