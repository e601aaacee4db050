package quality_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"aquaview.dev/monitor/pkg/quality"
)

var _ = Describe("RawReading", func() {
	It("decodes the sensor payload field names", func() {
		payload := []byte(`{"TDS":250,"Temperature":22.5,"Turbidity":50,"pH":7.2}`)

		var reading quality.RawReading
		Expect(json.Unmarshal(payload, &reading)).To(Succeed())
		Expect(reading.TDS).To(HaveValue(Equal(250.0)))
		Expect(reading.Temperature).To(HaveValue(Equal(22.5)))
		Expect(reading.Turbidity).To(HaveValue(Equal(50.0)))
		Expect(reading.PH).To(HaveValue(Equal(7.2)))
	})

	It("leaves missing fields nil rather than zero", func() {
		var reading quality.RawReading
		Expect(json.Unmarshal([]byte(`{"TDS":100}`), &reading)).To(Succeed())
		Expect(reading.TDS).NotTo(BeNil())
		Expect(reading.Temperature).To(BeNil())
		Expect(reading.Turbidity).To(BeNil())
		Expect(reading.PH).To(BeNil())
	})

	Describe("Values", func() {
		It("scales turbidity and omits missing parameters", func() {
			reading := &quality.RawReading{
				TDS:       ptr(100),
				Turbidity: ptr(1000),
			}
			values := reading.Values()
			Expect(values).To(HaveLen(2))
			Expect(values[quality.KindTDS]).To(Equal(100.0))
			Expect(values[quality.KindTurbidity]).To(Equal(10.0))
			Expect(values).NotTo(HaveKey(quality.KindTemperature))
			Expect(values).NotTo(HaveKey(quality.KindPH))
		})

		It("is empty for a nil reading", func() {
			var reading *quality.RawReading
			Expect(reading.Values()).To(BeEmpty())
		})
	})

	Describe("Empty", func() {
		It("treats nil and all-missing readings as empty", func() {
			var reading *quality.RawReading
			Expect(reading.Empty()).To(BeTrue())
			Expect((&quality.RawReading{}).Empty()).To(BeTrue())
		})

		It("treats a reading with any value as non-empty", func() {
			Expect((&quality.RawReading{PH: ptr(7)}).Empty()).To(BeFalse())
		})
	})
})
